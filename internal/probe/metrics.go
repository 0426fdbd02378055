package probe

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records per-host operation outcomes and latency.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the probe metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cephprobe",
				Subsystem: "probe",
				Name:      "operations_total",
				Help:      "Total number of per-host operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cephprobe",
				Subsystem: "probe",
				Name:      "operation_duration_seconds",
				Help:      "Duration of per-host operations in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"operation"},
		),
	}
	for _, c := range []prometheus.Collector{m.operations, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) record(op Operation, r Result) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(string(op), r.Outcome.String()).Inc()
	m.duration.WithLabelValues(string(op)).Observe(r.Duration.Seconds())
}
