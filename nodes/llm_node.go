// Package nodes provides ready-made node constructors on top of the core
// engine: LLM prompting, web search, embeddings, routing and KV plumbing.
package nodes

import (
	"context"
	"fmt"
	"regexp"
	"time"

	flowkit "flowkit"
	"flowkit/providers"
)

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// LLMConfig controls how the LLM node builds and sends its prompt.
type LLMConfig struct {
	Name string

	// Model is a "provider/model" specifier, a bare model name routed to
	// the default provider, or "" for the default provider's default.
	Model string

	// Template is the prompt template; {placeholders} are filled from the
	// shared store. Defaults to "{input}".
	Template string

	// InputKey aliases the primary input into {input}. Default "input".
	InputKey string

	// OutputKey receives the response. Default "output".
	OutputKey string

	MaxAttempts int
	Wait        time.Duration

	// Options is passed through to the provider callable.
	Options map[string]any
}

// LLM builds a node that renders a prompt template from the shared store
// and calls the LLM registry. Prep gathers the placeholder values, exec
// renders and calls, post writes the response under the output key.
func LLM(reg *providers.Registry[providers.LLMFunc], cfg LLMConfig) *flowkit.Node {
	if cfg.Name == "" {
		cfg.Name = "llm"
	}
	if cfg.Template == "" {
		cfg.Template = "{input}"
	}
	if cfg.InputKey == "" {
		cfg.InputKey = "input"
	}
	if cfg.OutputKey == "" {
		cfg.OutputKey = "output"
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	keys := placeholderKeys(cfg.Template)

	prep := func(_ context.Context, shared flowkit.Shared) (any, error) {
		values := make(map[string]any, len(keys)+1)
		for _, key := range keys {
			if v, ok := shared[key]; ok {
				values[key] = v
			} else {
				values[key] = ""
			}
		}
		if _, ok := values[cfg.InputKey]; !ok {
			values[cfg.InputKey] = shared[cfg.InputKey]
		}
		// Alias the configured input key to {input} so the default
		// template works with any input key.
		if _, wants := values["input"]; wants && cfg.InputKey != "input" {
			values["input"] = shared[cfg.InputKey]
		}
		return values, nil
	}

	exec := func(ctx context.Context, prepRes any) (any, error) {
		values, _ := prepRes.(map[string]any)
		prompt := renderTemplate(cfg.Template, values)

		fn, model, err := reg.Resolve(cfg.Model)
		if err != nil {
			return nil, err
		}
		return fn(ctx, prompt, model, cfg.Options)
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

func placeholderKeys(template string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			keys = append(keys, match[1])
		}
	}
	return keys
}

func renderTemplate(template string, values map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		if v, ok := values[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	})
}

func init() {
	RegisterKind(Kind{
		ID:          "llm",
		Description: "Renders a {placeholder} prompt template from shared state and calls the LLM registry.",
		Example:     `nodes.LLM(reg, nodes.LLMConfig{Template: "Summarize:\n{document}", OutputKey: "summary"})`,
	})
}
