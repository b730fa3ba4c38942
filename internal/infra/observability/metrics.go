package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/ponziworld/pwclient-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the client engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the ops /metrics endpoint can serve it.
	Registry *prometheus.Registry

	fetchDuration      *prometheus.HistogramVec
	reconcileCycles    prometheus.Counter
	callbacksInvoked   prometheus.Counter
	callbackPanics     prometheus.Counter
	validationFailures *prometheus.CounterVec
	submissions        *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// engine metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pwclient_fetch_duration_seconds",
				Help:    "Duration of backend fetches by endpoint.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		reconcileCycles: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pwclient_reconcile_cycles_total",
				Help: "Total reconciliation cycles completed.",
			},
		),
		callbacksInvoked: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pwclient_refresh_callbacks_total",
				Help: "Total refresh callbacks invoked by invalidation.",
			},
		),
		callbackPanics: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pwclient_refresh_callback_panics_total",
				Help: "Refresh callbacks that panicked and were isolated.",
			},
		),
		validationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pwclient_validation_failures_total",
				Help: "Transaction input validation failures by reason.",
			},
			[]string{"reason"},
		),
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pwclient_submissions_total",
				Help: "Buy/sell submissions by outcome.",
			},
			[]string{"outcome"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pwclient_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pwclient_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordFetchDuration records the duration of one backend fetch.
func (m *Metrics) RecordFetchDuration(endpoint string, d time.Duration) {
	m.fetchDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// IncrReconcileCycle counts a completed reconciliation cycle.
func (m *Metrics) IncrReconcileCycle() {
	m.reconcileCycles.Inc()
}

// IncrCallbackInvoked counts one refresh callback invocation.
func (m *Metrics) IncrCallbackInvoked() {
	m.callbacksInvoked.Inc()
}

// IncrCallbackPanic counts an isolated callback panic.
func (m *Metrics) IncrCallbackPanic() {
	m.callbackPanics.Inc()
}

// IncrValidationFailure counts a blocked submission by reason.
func (m *Metrics) IncrValidationFailure(reason string) {
	m.validationFailures.WithLabelValues(reason).Inc()
}

// IncrSubmission counts a submission outcome ("ok" or "failed").
func (m *Metrics) IncrSubmission(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// GetEngineSnapshot returns a snapshot of engine counters suitable for the
// ops snapshot endpoint. Prometheus counters expose cumulative values.
func (m *Metrics) GetEngineSnapshot() *domain.EngineMetrics {
	hits := getCounterValue(m.cacheHits, "history")
	misses := getCounterValue(m.cacheMisses, "history")

	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.EngineMetrics{
		ReconcileCycles:  int64(getPlainCounterValue(m.reconcileCycles)),
		CallbacksInvoked: int64(getPlainCounterValue(m.callbacksInvoked)),
		SubmissionsOK:    int64(getCounterValue(m.submissions, "ok")),
		SubmissionsFailed: int64(getCounterValue(m.submissions, "failed")),
		ValidationFailures: int64(getCounterValue(m.validationFailures, "invalid_amount") +
			getCounterValue(m.validationFailures, "exceeds_holdings") +
			getCounterValue(m.validationFailures, "insufficient_cash")),
		HistoryCacheHitRate: hitRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getPlainCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
