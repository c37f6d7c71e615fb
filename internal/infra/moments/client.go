package moments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/Tealium/tealium-mcp-demo/internal/domain"
)

const maxErrorBody = 512

type Client struct {
	http *resty.Client
}

// NewClient builds a Moments API client. A nil httpClient uses resty's default transport.
func NewClient(httpClient *http.Client) *Client {
	var rc *resty.Client
	if httpClient != nil {
		rc = resty.NewWithClient(httpClient)
	} else {
		rc = resty.New()
	}
	rc.SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0)
	return &Client{http: rc}
}

func (c *Client) Candidates(req domain.VisitorRequest, cfg domain.ResolutionConfig) ([]domain.EndpointCandidate, error) {
	return BuildCandidates(req, cfg)
}

// Fetch performs one GET against candidate. Non-2xx responses come back as
// *domain.HTTPStatusError; a 2xx body that is not a non-empty JSON object is
// an error too.
func (c *Client) Fetch(ctx context.Context, candidate domain.EndpointCandidate, cfg domain.ResolutionConfig) (domain.VisitorProfile, error) {
	req := c.http.R().SetContext(ctx)
	if cfg.APIKey != "" {
		req.SetAuthToken(cfg.APIKey)
	}

	resp, err := req.Get(candidate.URL)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", candidate.Description, err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		body := resp.Body()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &domain.HTTPStatusError{StatusCode: resp.StatusCode(), Body: string(body)}
	}

	var profile domain.VisitorProfile
	if err := json.Unmarshal(resp.Body(), &profile); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", candidate.Description, err)
	}
	if len(profile) == 0 {
		return nil, domain.ErrEmptyProfile
	}
	return profile, nil
}
