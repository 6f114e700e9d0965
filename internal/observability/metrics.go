package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	TurnsTotal      *prometheus.CounterVec
	TurnDuration    prometheus.Histogram
	ModelCalls      prometheus.Counter
	StoreQueries    *prometheus.CounterVec
	ParseFailures   prometheus.Counter
	ActiveSessions  prometheus.Gauge
	SweptTurns      prometheus.Counter
	EvictedSessions prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed turns by resolved intent and processing path.",
		}, []string{"intent", "path"}),
		TurnDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time from message pickup to reply.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		ModelCalls: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Language model invocations.",
		}),
		StoreQueries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_queries_total",
			Help:      "Graph store queries by outcome.",
		}, []string{"outcome"}),
		ParseFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decision_parse_failures_total",
			Help:      "Model payloads that survived neither the strict parse nor the repair pass.",
		}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Conversation sessions currently held by the store.",
		}),
		SweptTurns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_turns_total",
			Help:      "Conversation turns removed by the retention sweep.",
		}),
		EvictedSessions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evicted_sessions_total",
			Help:      "Sessions evicted by the capacity sweep.",
		}),
	}
}

// ObserveTurn records one finished turn.
func (m *Metrics) ObserveTurn(intent string, fallback bool, d time.Duration) {
	path := "primary"
	if fallback {
		path = "fallback"
	}
	m.TurnsTotal.WithLabelValues(intent, path).Inc()
	m.TurnDuration.Observe(d.Seconds())
}

// ObserveStoreQuery records one store call by outcome.
func (m *Metrics) ObserveStoreQuery(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.StoreQueries.WithLabelValues(outcome).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
