package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyIdentifier    = errors.New("visitor identifier is empty")
	ErrUnknownRequestKind = errors.New("unknown visitor request kind")
)

// ConfigError means resolution was refused because required settings are missing.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("moments configuration incomplete: missing %s", strings.Join(e.Missing, ", "))
}

type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
)

type AttemptOutcome string

const (
	OutcomeSuccess    AttemptOutcome = "success"
	OutcomeNotFound   AttemptOutcome = "not_found"
	OutcomeAuthFailed AttemptOutcome = "auth_failed"
	OutcomeError      AttemptOutcome = "error"
)

// Attempt records what happened when one candidate was tried.
type Attempt struct {
	Candidate  string         `json:"candidate"`
	StatusCode int            `json:"status_code,omitempty"`
	Outcome    AttemptOutcome `json:"outcome"`
	Error      string         `json:"error,omitempty"`
}

type Resolution struct {
	RequestID string         `json:"request_id"`
	Status    Status         `json:"status"`
	Key       string         `json:"key"`
	Source    string         `json:"source,omitempty"`
	Profile   VisitorProfile `json:"visitor_profile,omitempty"`
	Attempts  []Attempt      `json:"attempts,omitempty"`
}

func (r *Resolution) Found() bool {
	return r != nil && r.Status == StatusFound
}

// ErrEmptyProfile is returned for a 2xx response without a usable document.
var ErrEmptyProfile = errors.New("vendor returned an empty visitor profile")

// HTTPStatusError is a non-2xx vendor response.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("vendor responded %d", e.StatusCode)
	}
	return fmt.Sprintf("vendor responded %d: %s", e.StatusCode, e.Body)
}
