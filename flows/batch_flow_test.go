package flows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flowkit "flowkit"
)

func TestBatchFlowRunsOncePerParamSet(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	worker := flowkit.NewNode("worker",
		flowkit.WithPrep(func(ctx context.Context, _ flowkit.Shared) (any, error) {
			params := flowkit.RunParams(ctx)
			mu.Lock()
			seen = append(seen, fmt.Sprintf("%v/%v", params["region"], params["file"]))
			mu.Unlock()
			return nil, nil
		}),
	)

	flow := NewFlowBuilder("fan", worker).
		WithParams(flowkit.Params{"region": "eu"}).
		Build()
	batch := NewBatchFlow(flow, func(_ context.Context, _ flowkit.Shared) ([]flowkit.Params, error) {
		return []flowkit.Params{
			{"file": "a.txt"},
			{"file": "b.txt"},
			{"file": "c.txt", "region": "us"},
		}, nil
	})

	action, err := batch.Run(context.Background(), flowkit.Shared{})
	require.NoError(t, err)
	assert.Equal(t, flowkit.DefaultAction, action)
	assert.Equal(t, []string{"eu/a.txt", "eu/b.txt", "us/c.txt"}, seen,
		"sets run sequentially in order, each merged over the flow params")
}

func TestBatchFlowAbortsOnTraversalError(t *testing.T) {
	runs := 0
	worker := flowkit.NewNode("worker",
		flowkit.WithExec(func(ctx context.Context, _ any) (any, error) {
			runs++
			if flowkit.RunParams(ctx)["poison"] == true {
				return nil, errors.New("bad batch item")
			}
			return nil, nil
		}),
	)

	batch := NewBatchFlow(NewFlow("fan", worker), func(_ context.Context, _ flowkit.Shared) ([]flowkit.Params, error) {
		return []flowkit.Params{
			{"poison": false},
			{"poison": true},
			{"poison": false},
		}, nil
	})

	_, err := batch.Run(context.Background(), flowkit.Shared{})
	require.Error(t, err)
	assert.Equal(t, 2, runs, "the failing traversal aborts the remaining sets")
}

func TestBatchFlowWithoutPrep(t *testing.T) {
	runs := 0
	worker := flowkit.NewNode("worker",
		flowkit.WithExec(func(_ context.Context, _ any) (any, error) {
			runs++
			return nil, nil
		}),
	)

	batch := NewBatchFlow(NewFlow("fan", worker), nil)
	action, err := batch.Run(context.Background(), flowkit.Shared{})
	require.NoError(t, err)
	assert.Equal(t, flowkit.DefaultAction, action)
	assert.Zero(t, runs, "no parameter sets means no traversals")
}

func TestParallelBatchFlowDisjointKeys(t *testing.T) {
	var mu sync.Mutex

	worker := flowkit.NewNode("worker",
		flowkit.WithPrep(func(ctx context.Context, _ flowkit.Shared) (any, error) {
			return flowkit.RunParams(ctx)["key"], nil
		}),
		flowkit.WithExec(func(_ context.Context, prepRes any) (any, error) {
			time.Sleep(10 * time.Millisecond)
			return "done-" + prepRes.(string), nil
		}),
		flowkit.WithPost(func(_ context.Context, shared flowkit.Shared, prepRes, execRes any) (flowkit.Action, error) {
			// concurrent traversals share one store; this node keeps
			// to its own key and serializes the write itself
			mu.Lock()
			shared[prepRes.(string)] = execRes
			mu.Unlock()
			return "", nil
		}),
	)

	parallel := NewParallelBatchFlow(NewFlow("fan", worker), func(_ context.Context, _ flowkit.Shared) ([]flowkit.Params, error) {
		return []flowkit.Params{{"key": "k1"}, {"key": "k2"}, {"key": "k3"}}, nil
	})

	shared := flowkit.Shared{}
	start := time.Now()
	_, err := parallel.Run(context.Background(), shared)
	require.NoError(t, err)

	assert.Equal(t, "done-k1", shared["k1"])
	assert.Equal(t, "done-k2", shared["k2"])
	assert.Equal(t, "done-k3", shared["k3"])
	assert.Less(t, time.Since(start), 30*time.Millisecond,
		"traversals run concurrently, not back to back")
}

func TestParallelBatchFlowFirstErrorWins(t *testing.T) {
	worker := flowkit.NewNode("worker",
		flowkit.WithExec(func(ctx context.Context, _ any) (any, error) {
			if flowkit.RunParams(ctx)["poison"] == true {
				return nil, errors.New("bad branch")
			}
			return nil, nil
		}),
	)

	parallel := NewParallelBatchFlow(NewFlow("fan", worker), func(_ context.Context, _ flowkit.Shared) ([]flowkit.Params, error) {
		return []flowkit.Params{{"poison": false}, {"poison": true}}, nil
	})

	_, err := parallel.Run(context.Background(), flowkit.Shared{})
	var failure *flowkit.ExecFailure
	assert.ErrorAs(t, err, &failure)
}
