package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"flowkit/flows"
)

// Metrics exports flow activity as Prometheus metrics. It implements
// flows.Monitor, so it is wired like any other monitor.
type Metrics struct {
	flowRuns    *prometheus.CounterVec
	nodeRuns    *prometheus.CounterVec
	nodeErrors  *prometheus.CounterVec
	nodeSeconds *prometheus.HistogramVec

	mu     sync.Mutex
	starts map[string]time.Time
}

// NewMetrics registers the flowkit metric family with reg. A nil
// registerer uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		flowRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowkit_flow_runs_total",
			Help: "Completed flow traversals by outcome",
		}, []string{"flow", "outcome"}),
		nodeRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowkit_node_runs_total",
			Help: "Node lifecycle executions",
		}, []string{"flow", "node"}),
		nodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowkit_node_failures_total",
			Help: "Node executions that ended in a propagated failure",
		}, []string{"flow", "node"}),
		nodeSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowkit_node_duration_seconds",
			Help:    "Wall-clock time of full node lifecycles",
			Buckets: prometheus.DefBuckets,
		}, []string{"flow", "node"}),
		starts: make(map[string]time.Time),
	}
}

func (m *Metrics) Notify(_ context.Context, event flows.Event) {
	switch event.Type {
	case flows.EventNodeStart:
		m.mu.Lock()
		m.starts[event.RunID+"/"+event.Node] = event.Timestamp
		m.mu.Unlock()

	case flows.EventNodeEnd:
		m.nodeRuns.WithLabelValues(event.Flow, event.Node).Inc()
		m.observeDuration(event)

	case flows.EventNodeError:
		m.nodeRuns.WithLabelValues(event.Flow, event.Node).Inc()
		m.nodeErrors.WithLabelValues(event.Flow, event.Node).Inc()
		m.observeDuration(event)

	case flows.EventFlowComplete:
		outcome := "success"
		if event.Err != nil {
			outcome = "failure"
		}
		m.flowRuns.WithLabelValues(event.Flow, outcome).Inc()
	}
}

func (m *Metrics) observeDuration(event flows.Event) {
	key := event.RunID + "/" + event.Node
	m.mu.Lock()
	start, ok := m.starts[key]
	delete(m.starts, key)
	m.mu.Unlock()

	if ok {
		m.nodeSeconds.WithLabelValues(event.Flow, event.Node).
			Observe(event.Timestamp.Sub(start).Seconds())
	}
}
