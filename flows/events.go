package flows

import (
	"context"
	"time"

	flowkit "flowkit"
)

// EventType enumerates observable lifecycle hooks emitted by a flow run.
type EventType string

const (
	EventFlowStart    EventType = "flow_start"
	EventNodeStart    EventType = "node_start"
	EventNodeEnd      EventType = "node_end"
	EventNodeError    EventType = "node_error"
	EventFlowComplete EventType = "flow_complete"
)

// Event carries the metadata observability hooks can use. Retries are
// local to a node's exec phase, so monitors only ever see a node's final
// outcome, never intermediate attempts.
type Event struct {
	Type      EventType
	Timestamp time.Time
	RunID     string
	Flow      string
	Node      string
	Action    flowkit.Action
	Err       error
	Shared    flowkit.Shared
}

// Monitor observes lifecycle events emitted by Flow.Run.
type Monitor interface {
	Notify(ctx context.Context, event Event)
}

// emit delivers the event to every registered monitor. The shared store is
// snapshotted only when a monitor will actually see it; monitored flows
// running concurrent traversals over one store need the same key
// discipline as the traversals themselves.
func (f *Flow) emit(ctx context.Context, event Event, shared flowkit.Shared) {
	f.monitorMux.RLock()
	monitors := append([]Monitor(nil), f.monitors...)
	f.monitorMux.RUnlock()

	if len(monitors) == 0 {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Flow = f.name
	event.Shared = snapshotShared(shared)

	for _, monitor := range monitors {
		monitor.Notify(ctx, event)
	}
}

func snapshotShared(shared flowkit.Shared) flowkit.Shared {
	if shared == nil {
		return nil
	}
	copied := make(flowkit.Shared, len(shared))
	for k, v := range shared {
		copied[k] = v
	}
	return copied
}
