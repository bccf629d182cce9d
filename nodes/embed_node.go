package nodes

import (
	"context"
	"fmt"
	"time"

	flowkit "flowkit"
	"flowkit/providers"
)

// EmbedConfig controls the embedding node.
type EmbedConfig struct {
	Name string

	// Model is a "provider/model" specifier, a bare model name, or "".
	Model string

	// InputKey holds the text to embed. Default "text".
	InputKey string

	// OutputKey receives the vector. Default "embedding".
	OutputKey string

	MaxAttempts int
	Wait        time.Duration

	Options map[string]any
}

// Embed builds a node that maps the shared text to an embedding vector
// through the embedding registry.
func Embed(reg *providers.Registry[providers.EmbedFunc], cfg EmbedConfig) *flowkit.Node {
	if cfg.Name == "" {
		cfg.Name = "embed"
	}
	if cfg.InputKey == "" {
		cfg.InputKey = "text"
	}
	if cfg.OutputKey == "" {
		cfg.OutputKey = "embedding"
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}

	prep := func(_ context.Context, shared flowkit.Shared) (any, error) {
		if v, ok := shared[cfg.InputKey]; ok && v != nil {
			return fmt.Sprint(v), nil
		}
		return "", nil
	}

	exec := func(ctx context.Context, prepRes any) (any, error) {
		text, _ := prepRes.(string)
		fn, model, err := reg.Resolve(cfg.Model)
		if err != nil {
			return nil, err
		}
		return fn(ctx, text, model, cfg.Options)
	}

	post := func(_ context.Context, shared flowkit.Shared, _, execRes any) (flowkit.Action, error) {
		shared[cfg.OutputKey] = execRes
		return "", nil
	}

	return flowkit.NewNode(cfg.Name,
		flowkit.WithRetry(cfg.MaxAttempts, cfg.Wait),
		flowkit.WithPrep(prep),
		flowkit.WithExec(exec),
		flowkit.WithPost(post),
	)
}

func init() {
	RegisterKind(Kind{
		ID:          "embed",
		Description: "Maps shared text to an embedding vector via the embedding registry.",
		Example:     `nodes.Embed(reg, nodes.EmbedConfig{InputKey: "chunk", OutputKey: "vector"})`,
	})
}
