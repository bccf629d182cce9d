package flowkit

import "context"

// Shared is the mutable key-value context threaded through an entire run.
// It is the only channel for data exchange between nodes: prep reads from
// it, post writes to it, exec never touches it.
type Shared map[string]any

// Params is a set of run parameters a flow merges onto each node before it
// executes. Batch flows re-run a graph once per parameter set.
type Params map[string]any

// Action is the label a node's post phase returns. Flows use it to select
// the next node from the successors table; exact string equality, no
// fallthrough.
type Action string

// DefaultAction is substituted when post returns an empty action.
const DefaultAction Action = "default"

// Runner is the capability shared by leaf nodes, batch nodes and composite
// flows. Anything that satisfies it can be wired as a successor inside a
// flow, which is what makes subgraph nesting work.
type Runner interface {
	Name() string

	// Then registers next under the default action label and returns next
	// so linear chains read left to right.
	Then(next Runner) Runner

	// On registers next under the given action label. Re-registering a
	// label replaces the previous target. Returns next.
	On(action Action, next Runner) Runner

	// Successor looks up the target for an action label.
	Successor(action Action) (Runner, bool)

	// Run executes the full lifecycle and returns the routing action.
	Run(ctx context.Context, shared Shared) (Action, error)
}

// PrepFunc reads from the shared store and produces the exec input.
type PrepFunc func(ctx context.Context, shared Shared) (any, error)

// ExecFunc is the compute phase. It has no shared-store access and is the
// only phase wrapped by the retry loop.
type ExecFunc func(ctx context.Context, prepRes any) (any, error)

// PostFunc writes results back to the shared store and returns the action
// used for routing. An empty action means DefaultAction.
type PostFunc func(ctx context.Context, shared Shared, prepRes, execRes any) (Action, error)

// FallbackFunc is invoked once all exec attempts are exhausted. Its result
// replaces the exec result and the run continues as an ordinary success.
type FallbackFunc func(ctx context.Context, prepRes any, execErr error) (any, error)

// Clone returns a shallow copy of the parameter set.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge returns a copy of p with overrides applied on top.
func (p Params) Merge(overrides Params) Params {
	out := p.Clone()
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

type paramsKey struct{}

// WithRunParams attaches run parameters to the context. Flows install the
// merged parameter set before running each node, so concurrent traversals
// of one graph never share mutable per-run state.
func WithRunParams(ctx context.Context, p Params) context.Context {
	return context.WithValue(ctx, paramsKey{}, p)
}

// RunParams returns the parameters installed by the enclosing flow, or nil
// when the node runs standalone.
func RunParams(ctx context.Context) Params {
	p, _ := ctx.Value(paramsKey{}).(Params)
	return p
}
