package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics of the auth core
type Metrics struct {
	registry *prometheus.Registry

	// User lookup cache
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// Refresh token lifecycle
	TokensIssuedTotal  prometheus.Counter
	TokensRotatedTotal prometheus.Counter
	TokensRevokedTotal prometheus.Counter

	// Background sweep, labeled by deletion reason (expired / revoked)
	SweepDeletedTotal *prometheus.CounterVec
}

// New creates and registers all metrics on the given registry.
// Pass a fresh prometheus.NewRegistry() in tests to avoid collisions.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_user_cache_hits_total",
			Help: "Total number of user lookup cache hits",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_user_cache_misses_total",
			Help: "Total number of user lookup cache misses",
		}),
		TokensIssuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_refresh_tokens_issued_total",
			Help: "Total number of refresh tokens issued",
		}),
		TokensRotatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_refresh_tokens_rotated_total",
			Help: "Total number of refresh token rotations",
		}),
		TokensRevokedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_refresh_tokens_revoked_total",
			Help: "Total number of refresh tokens revoked",
		}),
		SweepDeletedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_refresh_tokens_swept_total",
			Help: "Total number of refresh tokens deleted by the background sweep",
		}, []string{"reason"}),
	}

	registry.MustRegister(
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.TokensIssuedTotal,
		m.TokensRotatedTotal,
		m.TokensRevokedTotal,
		m.SweepDeletedTotal,
	)

	return m
}

// Handler returns the HTTP handler serving the registry in Prometheus format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
