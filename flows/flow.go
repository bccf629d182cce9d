package flows

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	flowkit "flowkit"
)

// Runner is an alias for the core composition interface.
type Runner = flowkit.Runner

// ErrNoStart reports a flow built without a start node.
var ErrNoStart = errors.New("flows: flow has no start node")

// Flow walks a directed graph of runners. Each node's post phase returns
// an action; the flow follows the matching successor edge and stops when a
// node returns an action with no registered successor, handing that action
// back as the traversal's terminal result.
//
// Flow itself satisfies flowkit.Runner, so a flow can be wired as a
// successor inside another flow. The graph is not required to be acyclic;
// termination is the caller's responsibility via action routing (or the
// optional max-steps guard).
type Flow struct {
	name       string
	start      Runner
	params     flowkit.Params
	prep       flowkit.PrepFunc
	post       flowkit.PostFunc
	successors map[flowkit.Action]Runner
	maxSteps   int

	monitors   []Monitor
	monitorMux sync.RWMutex
}

// FlowBuilder provides a fluent interface for assembling flows.
type FlowBuilder struct {
	flow    *Flow
	current Runner
}

func NewFlowBuilder(name string, start Runner) *FlowBuilder {
	return &FlowBuilder{
		flow: &Flow{
			name:       name,
			start:      start,
			successors: make(map[flowkit.Action]Runner),
		},
		current: start,
	}
}

// NewFlow builds a flow with no extra configuration.
func NewFlow(name string, start Runner) *Flow {
	return NewFlowBuilder(name, start).Build()
}

// Then chains next after the most recently added node under the default
// action and makes next the chain tail.
func (fb *FlowBuilder) Then(next Runner) *FlowBuilder {
	fb.current = fb.current.Then(next)
	return fb
}

// Connect adds a labeled edge between two nodes already known to the
// builder's graph. The chain tail is left unchanged.
func (fb *FlowBuilder) Connect(from Runner, action flowkit.Action, to Runner) *FlowBuilder {
	from.On(action, to)
	return fb
}

// WithParams sets the flow's own parameters, merged under every per-run
// override.
func (fb *FlowBuilder) WithParams(params flowkit.Params) *FlowBuilder {
	fb.flow.params = params
	return fb
}

// WithPrep installs a hook that runs before traversal; its result is
// passed to the post hook.
func (fb *FlowBuilder) WithPrep(fn flowkit.PrepFunc) *FlowBuilder {
	fb.flow.prep = fn
	return fb
}

// WithPost installs a hook that runs after traversal and may replace the
// terminal action. An empty action keeps the traversal's result.
func (fb *FlowBuilder) WithPost(fn flowkit.PostFunc) *FlowBuilder {
	fb.flow.post = fn
	return fb
}

// WithMaxSteps guards cyclic graphs: the run errors out once the guard is
// exceeded. Zero disables the guard.
func (fb *FlowBuilder) WithMaxSteps(max int) *FlowBuilder {
	fb.flow.maxSteps = max
	return fb
}

// WithMonitor registers an observability hook for the flow.
func (fb *FlowBuilder) WithMonitor(monitor Monitor) *FlowBuilder {
	if monitor != nil {
		fb.flow.AddMonitor(monitor)
	}
	return fb
}

// Build returns the constructed flow.
func (fb *FlowBuilder) Build() *Flow {
	return fb.flow
}

func (f *Flow) Name() string { return f.name }

// AddMonitor registers a Monitor for the flow.
func (f *Flow) AddMonitor(monitor Monitor) *Flow {
	if monitor == nil {
		return f
	}
	f.monitorMux.Lock()
	f.monitors = append(f.monitors, monitor)
	f.monitorMux.Unlock()
	return f
}

// Then wires next as the flow's default successor in a parent graph.
func (f *Flow) Then(next Runner) Runner { return f.On(flowkit.DefaultAction, next) }

// On wires next under the given terminal action in a parent graph.
func (f *Flow) On(action flowkit.Action, next Runner) Runner {
	if action == "" {
		action = flowkit.DefaultAction
	}
	f.successors[action] = next
	return next
}

func (f *Flow) Successor(action flowkit.Action) (Runner, bool) {
	next, ok := f.successors[action]
	return next, ok
}

// Run executes the traversal: the optional prep hook first, then the graph
// walk, then the optional post hook, which defaults to handing back the
// traversal's terminal action.
func (f *Flow) Run(ctx context.Context, shared flowkit.Shared) (flowkit.Action, error) {
	if f.start == nil {
		return "", fmt.Errorf("%w: %s", ErrNoStart, f.name)
	}

	var prepRes any
	if f.prep != nil {
		res, err := f.prep(ctx, shared)
		if err != nil {
			return "", err
		}
		prepRes = res
	}

	params := f.params.Merge(flowkit.RunParams(ctx))
	terminal, err := f.orchestrate(ctx, uuid.NewString(), shared, params)
	if err != nil {
		return "", err
	}

	if f.post != nil {
		action, err := f.post(ctx, shared, prepRes, terminal)
		if err != nil {
			return "", err
		}
		if action != "" {
			terminal = action
		}
	}
	return terminal, nil
}

// orchestrate walks the graph once with the given parameter set. Batch
// flows call it repeatedly, each run starting fresh from the start node.
func (f *Flow) orchestrate(ctx context.Context, runID string, shared flowkit.Shared, params flowkit.Params) (terminal flowkit.Action, runErr error) {
	ctx = flowkit.WithRunParams(ctx, params)
	current := f.start
	steps := 0

	f.emit(ctx, Event{
		Type:  EventFlowStart,
		RunID: runID,
		Node:  current.Name(),
	}, shared)
	defer func() {
		f.emit(ctx, Event{
			Type:   EventFlowComplete,
			RunID:  runID,
			Action: terminal,
			Err:    runErr,
		}, shared)
	}()

	for {
		if f.maxSteps > 0 && steps >= f.maxSteps {
			return "", fmt.Errorf("flow %s: max steps exceeded: %d", f.name, f.maxSteps)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		f.emit(ctx, Event{
			Type:  EventNodeStart,
			RunID: runID,
			Node:  current.Name(),
		}, shared)

		action, err := current.Run(ctx, shared)
		if err != nil {
			f.emit(ctx, Event{
				Type:  EventNodeError,
				RunID: runID,
				Node:  current.Name(),
				Err:   err,
			}, shared)
			return "", err
		}

		f.emit(ctx, Event{
			Type:   EventNodeEnd,
			RunID:  runID,
			Node:   current.Name(),
			Action: action,
		}, shared)

		next, ok := current.Successor(action)
		if !ok {
			return action, nil
		}
		current = next
		steps++
	}
}
