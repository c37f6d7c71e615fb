package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the visitor lookup metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	Resolutions        *prometheus.CounterVec
	CandidateAttempts  *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram
	CacheErrors        *prometheus.CounterVec
	WarmupMessages     *prometheus.CounterVec
}

// NewCollector creates the collectors and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visitor_resolutions_total",
			Help: "Visitor resolutions by outcome and source",
		}, []string{"status", "source"}),
		CandidateAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visitor_candidate_attempts_total",
			Help: "Vendor endpoint candidate attempts by candidate and outcome",
		}, []string{"candidate", "outcome"}),
		ResolutionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "visitor_resolution_duration_seconds",
			Help:    "Time spent resolving a visitor, cache hits included",
			Buckets: prometheus.DefBuckets,
		}),
		CacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visitor_cache_errors_total",
			Help: "Cache store failures by operation",
		}, []string{"op"}),
		WarmupMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visitor_warmup_messages_total",
			Help: "Cache warm-up events consumed by result",
		}, []string{"result"}),
	}
	reg.MustRegister(c.Resolutions, c.CandidateAttempts, c.ResolutionDuration, c.CacheErrors, c.WarmupMessages)
	return c
}

func (c *Collector) ObserveResolution(status, source string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Resolutions.WithLabelValues(status, source).Inc()
	c.ResolutionDuration.Observe(elapsed.Seconds())
}

func (c *Collector) ObserveAttempt(candidate, outcome string) {
	if c == nil {
		return
	}
	c.CandidateAttempts.WithLabelValues(candidate, outcome).Inc()
}

func (c *Collector) ObserveCacheError(op string) {
	if c == nil {
		return
	}
	c.CacheErrors.WithLabelValues(op).Inc()
}

func (c *Collector) ObserveWarmup(result string) {
	if c == nil {
		return
	}
	c.WarmupMessages.WithLabelValues(result).Inc()
}
