package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Metrics counts task operations by outcome.
type Metrics struct {
	registry *prometheus.Registry
	ops      *prometheus.CounterVec
}

// New builds a Metrics with its own registry, so tests can construct
// independent instances without collisions.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskmanager",
		Name:      "task_operations_total",
		Help:      "Task operations by type and result.",
	}, []string{"op", "result"})
	reg.MustRegister(ops)
	return &Metrics{registry: reg, ops: ops}
}

// ObserveOp records one operation outcome.
func (m *Metrics) ObserveOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ops.WithLabelValues(op, result).Inc()
}

// OpCount returns the current counter value, for tests.
func (m *Metrics) OpCount(op, result string) float64 {
	c, err := m.ops.GetMetricWithLabelValues(op, result)
	if err != nil {
		return 0
	}
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		return 0
	}
	return pb.GetCounter().GetValue()
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
