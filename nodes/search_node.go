package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	flowkit "flowkit"
	"flowkit/providers"
)

// SearchConfig controls the search node.
type SearchConfig struct {
	Name string

	// Provider is the registered search provider name; "" uses the
	// registry default.
	Provider string

	// InputKey holds the query. Default "query".
	InputKey string

	// OutputKey receives the results. Default "search_results".
	OutputKey string

	// NumResults caps the hit count. Default 5.
	NumResults int

	// Format renders the hits as one readable string instead of storing
	// the raw slice.
	Format bool

	MaxAttempts int
	Wait        time.Duration

	Options map[string]any
}

// Search builds a node that runs the shared query through the search
// registry. An empty query short-circuits to an empty result without
// touching the provider.
func Search(reg *providers.Registry[providers.SearchFunc], cfg SearchConfig) *flowkit.Node {
	if cfg.Name == "" {
		cfg.Name = "search"
	}
	if cfg.InputKey == "" {
		cfg.InputKey = "query"
	}
	if cfg.OutputKey == "" {
		cfg.OutputKey = "search_results"
	}
	if cfg.NumResults == 0 {
		cfg.NumResults = 5
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
		query, _ := prepRes.(string)
		if query == "" {
			if cfg.Format {
				return "", nil
			}
			return []providers.SearchResult{}, nil
		}

		fn, err := reg.Lookup(cfg.Provider)
		if err != nil {
			return nil, err
		}
		results, err := fn(ctx, query, cfg.NumResults, cfg.Options)
		if err != nil {
			return nil, err
		}
		if cfg.Format {
			return FormatResults(results), nil
		}
		return results, nil
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

// FormatResults renders search hits as a numbered, human-readable block.
func FormatResults(results []providers.SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}
	formatted := make([]string, 0, len(results))
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "No title"
		}
		snippet := r.Snippet
		if snippet == "" {
			snippet = "No description"
		}
		formatted = append(formatted, fmt.Sprintf("%d. %s\n   %s\n   URL: %s", i+1, title, snippet, r.URL))
	}
	return strings.Join(formatted, "\n\n")
}

func init() {
	RegisterKind(Kind{
		ID:          "search",
		Description: "Runs the shared query through a registered search provider, optionally formatting the hits.",
		Example:     `nodes.Search(reg, nodes.SearchConfig{Provider: "duckduckgo", NumResults: 10})`,
	})
}
