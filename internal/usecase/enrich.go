package usecase

import (
	"context"

	"github.com/Tealium/tealium-mcp-demo/internal/domain"
)

const VisitorProfileKey = "visitorProfile"

// EnrichContext returns a copy of base with the visitor profile under
// "visitorProfile". When the visitor is not found base is returned as is.
func (r *visitorResolver) EnrichContext(ctx context.Context, base map[string]any, req domain.VisitorRequest, cfg domain.ResolutionConfig) (map[string]any, error) {
	res, err := r.Resolve(ctx, req, cfg)
	if err != nil {
		return base, err
	}
	if !res.Found() {
		return base, nil
	}

	out := make(map[string]any, len(base)+1)
	for k, v := range base {
		out[k] = v
	}
	out[VisitorProfileKey] = res.Profile
	return out, nil
}
