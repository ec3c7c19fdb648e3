package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the money-movement engine. All methods
// are nil-safe so tests can pass a nil *Metrics without registering
// collectors.
type Metrics struct {
	MovementsApplied  *prometheus.CounterVec
	MovementsRejected *prometheus.CounterVec
	MovementDuration  *prometheus.HistogramVec
}

// New creates a Metrics instance with all engine metrics registered on the
// default registry. Construct at most once per process.
func New() *Metrics {
	return &Metrics{
		MovementsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bankledger_movements_applied_total",
			Help: "Total number of committed movements by kind",
		}, []string{"kind"}),
		MovementsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bankledger_movements_rejected_total",
			Help: "Total number of rejected movements by kind and reason",
		}, []string{"kind", "reason"}),
		MovementDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bankledger_movement_duration_seconds",
			Help:    "Duration of movement operations including the atomic unit",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind"}),
	}
}

// MovementApplied records a committed movement.
func (m *Metrics) MovementApplied(kind string) {
	if m == nil {
		return
	}
	m.MovementsApplied.WithLabelValues(kind).Inc()
}

// MovementRejected records a rejected movement with its rule.
func (m *Metrics) MovementRejected(kind, reason string) {
	if m == nil {
		return
	}
	m.MovementsRejected.WithLabelValues(kind, reason).Inc()
}

// ObserveMovement records the duration of a movement operation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveMovement(kind string, start time.Time) {
	if m == nil {
		return
	}
	m.MovementDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
