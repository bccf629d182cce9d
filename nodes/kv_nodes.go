package nodes

import (
	"context"
	"fmt"

	flowkit "flowkit"
	"flowkit/kv"
)

// KVRead builds a node that loads a store value into the shared store
// under outputKey. The store fetch runs in exec, so it participates in
// the node's retry policy.
func KVRead(name string, store kv.Store, key, outputKey string, opts ...flowkit.Option) *flowkit.Node {
	base := []flowkit.Option{
		flowkit.WithExec(func(ctx context.Context, _ any) (any, error) {
			if store == nil {
				return nil, fmt.Errorf("kv store not configured for node %s", name)
			}
			value, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			return string(value), nil
		}),
		flowkit.WithPost(func(_ context.Context, shared flowkit.Shared, _, execRes any) (flowkit.Action, error) {
			shared[outputKey] = execRes
			return "", nil
		}),
	}
	return flowkit.NewNode(name, append(base, opts...)...)
}

// KVWrite builds a node that persists the shared value under inputKey
// into the store key.
func KVWrite(name string, store kv.Store, key, inputKey string, opts ...flowkit.Option) *flowkit.Node {
	base := []flowkit.Option{
		flowkit.WithPrep(func(_ context.Context, shared flowkit.Shared) (any, error) {
			value, ok := shared[inputKey]
			if !ok {
				return nil, fmt.Errorf("input key %s missing for node %s", inputKey, name)
			}
			return fmt.Sprint(value), nil
		}),
		flowkit.WithExec(func(ctx context.Context, prepRes any) (any, error) {
			if store == nil {
				return nil, fmt.Errorf("kv store not configured for node %s", name)
			}
			str, _ := prepRes.(string)
			return nil, store.Put(ctx, key, []byte(str))
		}),
	}
	return flowkit.NewNode(name, append(base, opts...)...)
}

func init() {
	RegisterKind(Kind{
		ID:          "kv_read",
		Description: "Loads a KV store value into shared state.",
		Example:     `nodes.KVRead("load", store, "prompt:v1", "prompt")`,
	})
	RegisterKind(Kind{
		ID:          "kv_write",
		Description: "Persists the shared value under InputKey into the KV store key.",
		Example:     `nodes.KVWrite("save", store, "summary:v1", "summary")`,
	})
}
