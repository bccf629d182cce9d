package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowkit/flows"
)

func TestMetricsCountsNodeAndFlowActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	ctx := context.Background()
	start := time.Now()

	metrics.Notify(ctx, flows.Event{Type: flows.EventFlowStart, Flow: "pipeline", RunID: "r1"})
	metrics.Notify(ctx, flows.Event{Type: flows.EventNodeStart, Flow: "pipeline", RunID: "r1", Node: "fetch", Timestamp: start})
	metrics.Notify(ctx, flows.Event{Type: flows.EventNodeEnd, Flow: "pipeline", RunID: "r1", Node: "fetch", Timestamp: start.Add(50 * time.Millisecond)})
	metrics.Notify(ctx, flows.Event{Type: flows.EventNodeStart, Flow: "pipeline", RunID: "r1", Node: "store", Timestamp: start})
	metrics.Notify(ctx, flows.Event{Type: flows.EventNodeError, Flow: "pipeline", RunID: "r1", Node: "store", Timestamp: start.Add(time.Millisecond), Err: errors.New("boom")})
	metrics.Notify(ctx, flows.Event{Type: flows.EventFlowComplete, Flow: "pipeline", RunID: "r1", Err: errors.New("boom")})
	metrics.Notify(ctx, flows.Event{Type: flows.EventFlowComplete, Flow: "pipeline", RunID: "r2"})

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.nodeRuns.WithLabelValues("pipeline", "fetch")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.nodeRuns.WithLabelValues("pipeline", "store")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.nodeErrors.WithLabelValues("pipeline", "store")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.flowRuns.WithLabelValues("pipeline", "failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.flowRuns.WithLabelValues("pipeline", "success")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "flowkit_node_duration_seconds")
}

func TestMetricsDurationNeedsMatchingStart(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	// An end without a start must not observe a bogus duration.
	metrics.Notify(context.Background(), flows.Event{
		Type: flows.EventNodeEnd, Flow: "pipeline", RunID: "r1", Node: "orphan",
		Timestamp: time.Now(),
	})

	metrics.mu.Lock()
	assert.Empty(t, metrics.starts)
	metrics.mu.Unlock()
}
