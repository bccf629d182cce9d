package flowkit

import (
	"context"
	"fmt"
	"sync"
)

// BatchNode runs its exec phase once per element of the sequence produced
// by prep, strictly in order. Each item gets the full retry/fallback
// treatment. Post receives the collected results as one []any in input
// order; an unfallbacked item failure aborts the batch before post.
type BatchNode struct {
	*Node
}

// NewBatchNode builds a batch node. Prep must return []any (nil means an
// empty batch); exec is invoked with a single item.
func NewBatchNode(name string, opts ...Option) *BatchNode {
	return &BatchNode{Node: NewNode(name, opts...)}
}

func (b *BatchNode) Run(ctx context.Context, shared Shared) (Action, error) {
	if err := b.retry.validate(); err != nil {
		return "", err
	}
	prepRes, err := b.runPrep(ctx, shared)
	if err != nil {
		return "", err
	}
	items, err := batchItems(b.name, prepRes)
	if err != nil {
		return "", err
	}

	results := make([]any, len(items))
	for i, item := range items {
		res, err := execWithRetry(ctx, b.name, b.retry, b.exec, b.fallback, item)
		if err != nil {
			return "", err
		}
		results[i] = res
	}
	return b.runPost(ctx, shared, prepRes, results)
}

// ParallelBatchNode is the concurrent counterpart of BatchNode: every item
// exec is dispatched on its own goroutine with no concurrency bound.
// Completions may land in any order, but post always sees results in the
// original input order. The first item failure wins after all goroutines
// join.
type ParallelBatchNode struct {
	*Node
}

func NewParallelBatchNode(name string, opts ...Option) *ParallelBatchNode {
	return &ParallelBatchNode{Node: NewNode(name, opts...)}
}

func (b *ParallelBatchNode) Run(ctx context.Context, shared Shared) (Action, error) {
	if err := b.retry.validate(); err != nil {
		return "", err
	}
	prepRes, err := b.runPrep(ctx, shared)
	if err != nil {
		return "", err
	}
	items, err := batchItems(b.name, prepRes)
	if err != nil {
		return "", err
	}

	results := make([]any, len(items))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, item := range items {
		wg.Add(1)
		go func(i int, item any) {
			defer wg.Done()
			res, err := execWithRetry(ctx, b.name, b.retry, b.exec, b.fallback, item)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			results[i] = res
		}(i, item)
	}
	wg.Wait()

	if firstErr != nil {
		return "", firstErr
	}
	return b.runPost(ctx, shared, prepRes, results)
}

func batchItems(name string, prepRes any) ([]any, error) {
	switch items := prepRes.(type) {
	case nil:
		return nil, nil
	case []any:
		return items, nil
	default:
		return nil, fmt.Errorf("node %s: batch prep must return []any, got %T", name, prepRes)
	}
}
