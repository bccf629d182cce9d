package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	flowkit "flowkit"
	"flowkit/providers"
)

// RouterConfig controls how the router turns LLM output into an action.
type RouterConfig struct {
	Name string

	// Model is a "provider/model" specifier, a bare model name, or "".
	Model string

	// Prompt is the system instruction explaining the choice to make.
	Prompt string

	// Actions are the labels the LLM may pick from.
	Actions []flowkit.Action

	// InputKey holds the text being classified. Default "input".
	InputKey string

	// Default is returned when the answer matches no action. Falls back
	// to the first action.
	Default flowkit.Action

	MaxAttempts int
	Wait        time.Duration

	Options map[string]any
}

// Router builds a node that asks the LLM which branch to execute next and
// returns the chosen label as its post action, driving the flow's
// successor lookup.
func Router(reg *providers.Registry[providers.LLMFunc], cfg RouterConfig) *flowkit.Node {
	if cfg.Name == "" {
		cfg.Name = "router"
	}
	if cfg.InputKey == "" {
		cfg.InputKey = "input"
	}
	if cfg.Default == "" && len(cfg.Actions) > 0 {
		cfg.Default = cfg.Actions[0]
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
		input, _ := prepRes.(string)

		labels := make([]string, len(cfg.Actions))
		for i, a := range cfg.Actions {
			labels[i] = string(a)
		}
		prompt := fmt.Sprintf("%s\n\nAnswer with exactly one of: %s\n\nInput:\n%s",
			cfg.Prompt, strings.Join(labels, ", "), input)

		fn, model, err := reg.Resolve(cfg.Model)
		if err != nil {
			return nil, err
		}
		answer, err := fn(ctx, prompt, model, cfg.Options)
		if err != nil {
			return nil, err
		}

		answer = strings.ToLower(strings.TrimSpace(answer))
		for _, action := range cfg.Actions {
			if strings.Contains(answer, strings.ToLower(string(action))) {
				return action, nil
			}
		}
		return cfg.Default, nil
	}

	post := func(_ context.Context, _ flowkit.Shared, _, execRes any) (flowkit.Action, error) {
		action, _ := execRes.(flowkit.Action)
		return action, nil
	}

	return flowkit.NewNode(cfg.Name,
		flowkit.WithRetry(cfg.MaxAttempts, cfg.Wait),
		flowkit.WithPrep(prep),
		flowkit.WithExec(exec),
		flowkit.WithPost(post),
	)
}

// Branch builds a node that routes on a plain predicate over the shared
// store, with no provider involved. An empty result means DefaultAction.
func Branch(name string, predicate func(flowkit.Shared) flowkit.Action) *flowkit.Node {
	return flowkit.NewNode(name,
		flowkit.WithPrep(func(_ context.Context, shared flowkit.Shared) (any, error) {
			return predicate(shared), nil
		}),
		flowkit.WithPost(func(_ context.Context, _ flowkit.Shared, prepRes, _ any) (flowkit.Action, error) {
			action, _ := prepRes.(flowkit.Action)
			return action, nil
		}),
	)
}

func init() {
	RegisterKind(Kind{
		ID:          "router",
		Description: "Prompts the LLM to pick a named action from the supplied list.",
		Example:     `nodes.Router(reg, nodes.RouterConfig{Actions: []flowkit.Action{"search", "summarize"}, Prompt: "Pick one action"})`,
	})
	RegisterKind(Kind{
		ID:          "branch",
		Description: "Routes on a predicate over shared state.",
		Example:     `nodes.Branch("gate", func(shared flowkit.Shared) flowkit.Action { return "retry" })`,
	})
}
