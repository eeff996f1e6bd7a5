package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "poaching_risk"

// Metrics holds the Prometheus collectors for the resolver service.
type Metrics struct {
	ResolutionsTotal *prometheus.CounterVec // labels: granularity={reserve,district,state,fallback}
	PredictionsTotal *prometheus.CounterVec // labels: risk_level

	// Inference backend.
	BackendRequests *prometheus.CounterVec   // labels: endpoint, outcome={success,error}
	BackendDuration *prometheus.HistogramVec // labels: endpoint
	BackendCache    *prometheus.CounterVec   // labels: result={hit,miss}

	// Alert relay.
	AlertsRelayed     prometheus.Counter
	RelayRunning      prometheus.Gauge
	StreamSubscribers prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		ResolutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Location resolutions by the granularity that produced the coordinate.",
		}, []string{"granularity"}),
		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Completed risk predictions by predicted level.",
		}, []string{"risk_level"}),
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Inference backend requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Inference backend request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		BackendCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_cache_total",
			Help:      "Backend response cache lookups by result.",
		}, []string{"result"}),
		AlertsRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_relayed_total",
			Help:      "Alerts delivered to the configured loaders.",
		}),
		RelayRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_running",
			Help:      "1 while the alert relay is polling, 0 otherwise.",
		}),
		StreamSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_subscribers",
			Help:      "Connected WebSocket alert stream clients.",
		}),
	}
}

// NewMetrics creates the service metrics and registers them with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ResolutionsTotal,
		m.PredictionsTotal,
		m.BackendRequests,
		m.BackendDuration,
		m.BackendCache,
		m.AlertsRelayed,
		m.RelayRunning,
		m.StreamSubscribers,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
