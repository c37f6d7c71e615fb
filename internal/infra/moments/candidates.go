package moments

import (
	"fmt"
	"net/url"

	"github.com/Tealium/tealium-mcp-demo/internal/domain"
)

// Candidate descriptions, in the order they are tried for attribute lookups.
const (
	CandidateVisitor        = "visitor-id"
	CandidateAttributePath  = "attribute-path"
	CandidateAttributeQuery = "attribute-query"
	CandidateProfileLookup  = "profile-lookup"
)

// BuildCandidates lays out the vendor URLs to try for req, most specific
// first. It does no I/O and returns the same list for the same input.
func BuildCandidates(req domain.VisitorRequest, cfg domain.ResolutionConfig) ([]domain.EndpointCandidate, error) {
	attributeID, value, err := req.Lookup()
	if err != nil {
		return nil, err
	}

	profileBase := cfg.Base() + url.PathEscape(cfg.Account) + "/profiles/" + url.PathEscape(cfg.Profile)
	engineBase := profileBase + "/engines/" + url.PathEscape(cfg.EngineID)

	if req.Kind == domain.ByVisitorID {
		return []domain.EndpointCandidate{{
			Description: CandidateVisitor,
			URL:         engineBase + "/visitors/" + url.PathEscape(value),
		}}, nil
	}

	query := url.Values{}
	query.Set("attributeId", attributeID)
	query.Set("attributeValue", value)

	lookup := url.Values{}
	lookup.Set(attributeID, value)

	return []domain.EndpointCandidate{
		{
			Description: CandidateAttributePath,
			URL:         fmt.Sprintf("%s/attributes/id:%s/values/%s", engineBase, url.PathEscape(attributeID), url.PathEscape(value)),
		},
		{
			Description: CandidateAttributeQuery,
			URL:         engineBase + "?" + query.Encode(),
		},
		{
			Description: CandidateProfileLookup,
			URL:         profileBase + "/lookup?" + lookup.Encode(),
		},
	}, nil
}
