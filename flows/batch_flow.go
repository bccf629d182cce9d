package flows

import (
	"context"
	"sync"

	"github.com/google/uuid"

	flowkit "flowkit"
)

// BatchPrepFunc produces the parameter sets a batch flow fans the graph
// over, one full traversal per set.
type BatchPrepFunc func(ctx context.Context, shared flowkit.Shared) ([]flowkit.Params, error)

// BatchFlow re-runs an entire flow graph once per parameter set, in
// sequence. Every traversal starts fresh from the start node with the
// set's parameters merged over the flow's own; all traversals share the
// one shared store. The first traversal error aborts the remainder.
type BatchFlow struct {
	*Flow
	prep BatchPrepFunc
}

func NewBatchFlow(flow *Flow, prep BatchPrepFunc) *BatchFlow {
	return &BatchFlow{Flow: flow, prep: prep}
}

func (bf *BatchFlow) Run(ctx context.Context, shared flowkit.Shared) (flowkit.Action, error) {
	sets, err := bf.paramSets(ctx, shared)
	if err != nil {
		return "", err
	}
	base := bf.params.Merge(flowkit.RunParams(ctx))
	for _, set := range sets {
		if _, err := bf.orchestrate(ctx, uuid.NewString(), shared, base.Merge(set)); err != nil {
			return "", err
		}
	}
	return flowkit.DefaultAction, nil
}

func (bf *BatchFlow) paramSets(ctx context.Context, shared flowkit.Shared) ([]flowkit.Params, error) {
	if bf.start == nil {
		return nil, ErrNoStart
	}
	if bf.prep == nil {
		return nil, nil
	}
	return bf.prep(ctx, shared)
}

// ParallelBatchFlow dispatches one independent graph traversal per
// parameter set, all concurrently and unbounded. The engine provides no
// isolation between traversals sharing one store: callers use disjoint
// keys or separate stores per branch. The first traversal error wins
// after all traversals join.
type ParallelBatchFlow struct {
	*BatchFlow
}

func NewParallelBatchFlow(flow *Flow, prep BatchPrepFunc) *ParallelBatchFlow {
	return &ParallelBatchFlow{BatchFlow: NewBatchFlow(flow, prep)}
}

func (pf *ParallelBatchFlow) Run(ctx context.Context, shared flowkit.Shared) (flowkit.Action, error) {
	sets, err := pf.paramSets(ctx, shared)
	if err != nil {
		return "", err
	}
	base := pf.params.Merge(flowkit.RunParams(ctx))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, set := range sets {
		wg.Add(1)
		go func(set flowkit.Params) {
			defer wg.Done()
			if _, err := pf.orchestrate(ctx, uuid.NewString(), shared, base.Merge(set)); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(set)
	}
	wg.Wait()

	if firstErr != nil {
		return "", firstErr
	}
	return flowkit.DefaultAction, nil
}
