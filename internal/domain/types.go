package domain

import (
	"context"
	"strings"
	"time"
)

const (
	DefaultBaseURL         = "https://personalization-api.eu-central-1.prod.tealiumapis.com/personalization/accounts/"
	DefaultFreshnessWindow = time.Hour
	DefaultRequestTimeout  = 5 * time.Second

	SourceCache = "cache"
)

// VisitorProfile is the vendor's visitor document, passed through untouched.
type VisitorProfile map[string]any

type RequestKind int

const (
	ByVisitorID RequestKind = iota
	ByAttribute
	ByFreeForm
)

func (k RequestKind) String() string {
	switch k {
	case ByVisitorID:
		return "visitor_id"
	case ByAttribute:
		return "attribute"
	case ByFreeForm:
		return "free_form"
	}
	return "unknown"
}

// VisitorRequest identifies the visitor to look up. Only the fields matching
// Kind are meaningful.
type VisitorRequest struct {
	Kind           RequestKind
	VisitorID      string
	AttributeID    string
	AttributeValue string
	Raw            string
}

func VisitorIDRequest(id string) VisitorRequest {
	return VisitorRequest{Kind: ByVisitorID, VisitorID: strings.TrimSpace(id)}
}

func AttributeRequest(attributeID, value string) VisitorRequest {
	return VisitorRequest{
		Kind:           ByAttribute,
		AttributeID:    strings.TrimSpace(attributeID),
		AttributeValue: strings.TrimSpace(value),
	}
}

func FreeFormRequest(raw string) VisitorRequest {
	return VisitorRequest{Kind: ByFreeForm, Raw: strings.TrimSpace(raw)}
}

// Lookup resolves the request into the attribute id/value pair used for
// candidate URLs and the cache key. Free-form input is classified here.
// For ByVisitorID the attribute id is empty and the value is the visitor ID.
func (r VisitorRequest) Lookup() (attributeID, value string, err error) {
	switch r.Kind {
	case ByVisitorID:
		if r.VisitorID == "" {
			return "", "", ErrEmptyIdentifier
		}
		return "", r.VisitorID, nil
	case ByAttribute:
		if r.AttributeID == "" || r.AttributeValue == "" {
			return "", "", ErrEmptyIdentifier
		}
		return r.AttributeID, r.AttributeValue, nil
	case ByFreeForm:
		if r.Raw == "" {
			return "", "", ErrEmptyIdentifier
		}
		switch Classify(r.Raw) {
		case KindEmail:
			return AttributeEmail, r.Raw, nil
		case KindPhone:
			return AttributePhone, NormalizePhone(r.Raw), nil
		default:
			return AttributeCustomerID, r.Raw, nil
		}
	}
	return "", "", ErrUnknownRequestKind
}

// CacheKey is the visitor ID for ByVisitorID requests and
// "attributeId|attributeValue" otherwise.
func (r VisitorRequest) CacheKey() (string, error) {
	attributeID, value, err := r.Lookup()
	if err != nil {
		return "", err
	}
	if r.Kind == ByVisitorID {
		return value, nil
	}
	return attributeID + "|" + value, nil
}

// ResolutionConfig is passed explicitly into every resolution.
type ResolutionConfig struct {
	Account         string
	Profile         string
	EngineID        string
	APIKey          string
	BaseURL         string
	UseCache        bool
	FreshnessWindow time.Duration
	RequestTimeout  time.Duration
}

// Validate reports the required fields that are empty.
func (c ResolutionConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Account) == "" {
		missing = append(missing, "account")
	}
	if strings.TrimSpace(c.Profile) == "" {
		missing = append(missing, "profile")
	}
	if strings.TrimSpace(c.EngineID) == "" {
		missing = append(missing, "engineId")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

func (c ResolutionConfig) Window() time.Duration {
	if c.FreshnessWindow <= 0 {
		return DefaultFreshnessWindow
	}
	return c.FreshnessWindow
}

func (c ResolutionConfig) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return DefaultRequestTimeout
	}
	return c.RequestTimeout
}

func (c ResolutionConfig) Base() string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// EndpointCandidate is one vendor URL shape to try. Built per request, never persisted.
type EndpointCandidate struct {
	Description string
	URL         string
}

type CacheEntry struct {
	Key         string         `json:"key"`
	Profile     VisitorProfile `json:"profile"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Fresh reports whether the entry is younger than window at now.
func (e CacheEntry) Fresh(now time.Time, window time.Duration) bool {
	return now.Sub(e.LastUpdated) < window
}

// ProfileCache is the externally owned visitor cache. Get returns nil, nil
// when the key is absent. Put replaces any prior entry for the key.
type ProfileCache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Put(ctx context.Context, entry CacheEntry) error
}

// VisitorAPI is the vendor personalization API: it lays out the candidate
// URLs for a request and performs one read-only lookup per candidate.
type VisitorAPI interface {
	Candidates(req VisitorRequest, cfg ResolutionConfig) ([]EndpointCandidate, error)
	Fetch(ctx context.Context, candidate EndpointCandidate, cfg ResolutionConfig) (VisitorProfile, error)
}
