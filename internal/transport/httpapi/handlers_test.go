package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tealium/tealium-mcp-demo/internal/domain"
)

type stubResolver struct {
	got []domain.VisitorRequest
	res *domain.Resolution
	err error
}

func (s *stubResolver) Resolve(_ context.Context, req domain.VisitorRequest, cfg domain.ResolutionConfig) (*domain.Resolution, error) {
	s.got = append(s.got, req)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := req.CacheKey(); err != nil {
		return nil, err
	}
	return s.res, s.err
}

func (s *stubResolver) EnrichContext(_ context.Context, base map[string]any, _ domain.VisitorRequest, _ domain.ResolutionConfig) (map[string]any, error) {
	return base, nil
}

var okConfig = domain.ResolutionConfig{Account: "acme", Profile: "main", EngineID: "eng-1"}

func setup(res *domain.Resolution, cfg domain.ResolutionConfig) (*stubResolver, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	stub := &stubResolver{res: res}
	router := NewRouter(NewHandler(stub, cfg, zerolog.Nop()), prometheus.NewRegistry())
	return stub, router
}

func do(t *testing.T, router *gin.Engine, method, target, body string) (int, map[string]any) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var out map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr.Code, out
}

func TestLookupFound(t *testing.T) {
	stub, router := setup(&domain.Resolution{
		RequestID: "r-1",
		Status:    domain.StatusFound,
		Source:    "attribute-path",
		Profile:   domain.VisitorProfile{"properties": map[string]any{"5123": "gold"}},
	}, okConfig)

	code, out := do(t, router, http.MethodGet, "/api/v1/lookup?email=jane@example.com", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["found"])
	assert.Equal(t, "attribute-path", out["source"])
	assert.Contains(t, out, "visitor_profile")
	require.Len(t, stub.got, 1)
	assert.Equal(t, domain.FreeFormRequest("jane@example.com"), stub.got[0])
}

func TestLookupNotFoundIsNotAnError(t *testing.T) {
	_, router := setup(&domain.Resolution{
		Status:   domain.StatusNotFound,
		Attempts: []domain.Attempt{{Candidate: "attribute-path", StatusCode: 404, Outcome: domain.OutcomeNotFound}},
	}, okConfig)

	code, out := do(t, router, http.MethodPost, "/api/v1/lookup", `{"attribute_id":"5003","attribute_value":"jane@example.com"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, out["found"])
	assert.Len(t, out["attempts"], 1)
	assert.NotContains(t, out, "visitor_profile")
}

func TestByVisitorID(t *testing.T) {
	stub, router := setup(&domain.Resolution{Status: domain.StatusFound, Source: "visitor-id", Profile: domain.VisitorProfile{"a": 1}}, okConfig)

	code, _ := do(t, router, http.MethodGet, "/api/v1/visitors/v-42", "")
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, stub.got, 1)
	assert.Equal(t, domain.VisitorIDRequest("v-42"), stub.got[0])
}

func TestLookupConfigError(t *testing.T) {
	_, router := setup(nil, domain.ResolutionConfig{Account: "acme"})

	code, out := do(t, router, http.MethodGet, "/api/v1/lookup?identifier=visitor-42", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.ElementsMatch(t, []any{"profile", "engineId"}, out["missing"])
}

func TestLookupBadRequests(t *testing.T) {
	_, router := setup(nil, okConfig)

	code, _ := do(t, router, http.MethodGet, "/api/v1/lookup", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, router, http.MethodPost, "/api/v1/lookup", `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, router, http.MethodPost, "/api/v1/lookup", `{"attribute_id":"email"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealthAndMetrics(t *testing.T) {
	_, router := setup(nil, okConfig)

	code, out := do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out["status"])

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
