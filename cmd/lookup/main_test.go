package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCommand(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{"audiences":{"12":"Returning"}}`))
	}))
	defer srv.Close()

	t.Setenv("TEALIUM_ACCOUNT", "acme")
	t.Setenv("TEALIUM_PROFILE", "main")
	t.Setenv("TEALIUM_ENGINE_ID", "eng-1")
	t.Setenv("TEALIUM_MOMENTS_BASE_URL", srv.URL+"/personalization/accounts/")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--visitor-id", "v-42"})
	require.NoError(t, cmd.Execute())

	var res map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, "found", res["status"])
	assert.Equal(t, "visitor-id", res["source"])
	assert.Equal(t, []string{"/personalization/accounts/acme/profiles/main/engines/eng-1/visitors/v-42"}, paths)
}

func TestLookupCommandConfigError(t *testing.T) {
	t.Setenv("TEALIUM_ACCOUNT", "")
	t.Setenv("TEALIUM_PROFILE", "")
	t.Setenv("TEALIUM_ENGINE_ID", "")
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"jane@example.com"})
	assert.Error(t, cmd.Execute())
}
