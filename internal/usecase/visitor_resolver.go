package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Tealium/tealium-mcp-demo/internal/domain"
	"github.com/Tealium/tealium-mcp-demo/internal/metrics"
)

const defaultCacheTimeout = 250 * time.Millisecond

type VisitorResolver interface {
	Resolve(ctx context.Context, req domain.VisitorRequest, cfg domain.ResolutionConfig) (*domain.Resolution, error)
	EnrichContext(ctx context.Context, base map[string]any, req domain.VisitorRequest, cfg domain.ResolutionConfig) (map[string]any, error)
}

type visitorResolver struct {
	api          domain.VisitorAPI
	cache        domain.ProfileCache
	logger       zerolog.Logger
	metrics      *metrics.Collector
	now          func() time.Time
	cacheTimeout time.Duration
}

type Option func(*visitorResolver)

func WithLogger(l zerolog.Logger) Option {
	return func(r *visitorResolver) { r.logger = l }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(r *visitorResolver) { r.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(r *visitorResolver) { r.now = now }
}

func WithCacheTimeout(d time.Duration) Option {
	return func(r *visitorResolver) { r.cacheTimeout = d }
}

// NewVisitorResolver wires the resolution engine. cache may be nil, in which
// case UseCache is ignored.
func NewVisitorResolver(api domain.VisitorAPI, cache domain.ProfileCache, opts ...Option) VisitorResolver {
	r := &visitorResolver{
		api:          api,
		cache:        cache,
		logger:       zerolog.Nop(),
		now:          time.Now,
		cacheTimeout: defaultCacheTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks the visitor up in the cache and then in the vendor candidates,
// strictly in order, stopping at the first success. Exhausting the candidates
// is a NotFound resolution, not an error. The only errors returned are
// *domain.ConfigError and invalid request errors, both raised before any I/O.
func (r *visitorResolver) Resolve(ctx context.Context, req domain.VisitorRequest, cfg domain.ResolutionConfig) (*domain.Resolution, error) {
	start := r.now()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key, err := req.CacheKey()
	if err != nil {
		return nil, err
	}

	res := &domain.Resolution{RequestID: uuid.NewString(), Key: key}
	log := r.logger.With().
		Str("request_id", res.RequestID).
		Str("lookup", req.Kind.String()).
		Str("key", domain.MaskIdentifier(key)).
		Logger()

	useCache := cfg.UseCache && r.cache != nil
	if useCache {
		if entry := r.readCache(ctx, key, log); entry != nil && entry.Fresh(r.now(), cfg.Window()) {
			log.Debug().Time("last_updated", entry.LastUpdated).Msg("visitor served from cache")
			res.Status = domain.StatusFound
			res.Source = domain.SourceCache
			res.Profile = entry.Profile
			r.metrics.ObserveResolution(string(res.Status), res.Source, r.now().Sub(start))
			return res, nil
		}
	}

	candidates, err := r.api.Candidates(req, cfg)
	if err != nil {
		return nil, err
	}

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("resolution abandoned before all candidates were tried")
			break
		}

		attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
		profile, err := r.api.Fetch(attemptCtx, candidate, cfg)
		cancel()

		attempt := newAttempt(candidate, err)
		res.Attempts = append(res.Attempts, attempt)
		r.metrics.ObserveAttempt(attempt.Candidate, string(attempt.Outcome))

		if err != nil {
			log.Debug().
				Str("candidate", candidate.Description).
				Int("status_code", attempt.StatusCode).
				Str("outcome", string(attempt.Outcome)).
				Err(err).
				Msg("candidate failed")
			continue
		}

		res.Status = domain.StatusFound
		res.Source = candidate.Description
		res.Profile = profile
		log.Info().Str("candidate", candidate.Description).Int("attempts", len(res.Attempts)).Msg("visitor resolved")

		if useCache {
			r.writeCache(ctx, domain.CacheEntry{Key: key, Profile: profile, LastUpdated: r.now()}, log)
		}
		r.metrics.ObserveResolution(string(res.Status), res.Source, r.now().Sub(start))
		return res, nil
	}

	res.Status = domain.StatusNotFound
	log.Info().Int("attempts", len(res.Attempts)).Msg("visitor not found, continuing anonymously")
	r.metrics.ObserveResolution(string(res.Status), "", r.now().Sub(start))
	return res, nil
}

// readCache treats any store failure as a miss.
func (r *visitorResolver) readCache(ctx context.Context, key string, log zerolog.Logger) *domain.CacheEntry {
	cctx, cancel := context.WithTimeout(ctx, r.cacheTimeout)
	defer cancel()

	entry, err := r.cache.Get(cctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("cache get failed")
		r.metrics.ObserveCacheError("get")
		return nil
	}
	return entry
}

// writeCache is best-effort; failures never change the resolution outcome.
func (r *visitorResolver) writeCache(ctx context.Context, entry domain.CacheEntry, log zerolog.Logger) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cacheTimeout)
	defer cancel()

	if err := r.cache.Put(cctx, entry); err != nil {
		log.Warn().Err(err).Msg("cache put failed")
		r.metrics.ObserveCacheError("put")
	}
}

func newAttempt(candidate domain.EndpointCandidate, err error) domain.Attempt {
	a := domain.Attempt{Candidate: candidate.Description}
	if err == nil {
		a.Outcome = domain.OutcomeSuccess
		return a
	}

	a.Error = err.Error()
	a.Outcome = domain.OutcomeError

	var statusErr *domain.HTTPStatusError
	if errors.As(err, &statusErr) {
		a.StatusCode = statusErr.StatusCode
		switch statusErr.StatusCode {
		case http.StatusNotFound:
			a.Outcome = domain.OutcomeNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			a.Outcome = domain.OutcomeAuthFailed
		}
	}
	return a
}
