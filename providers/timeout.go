package providers

import (
	"context"
	"time"
)

// The engine defines no deadline primitive of its own; timeout enforcement
// belongs to the provider callables. These decorators bound a single call
// with a context deadline.

// LLMWithTimeout bounds each call to fn with timeout.
func LLMWithTimeout(fn LLMFunc, timeout time.Duration) LLMFunc {
	return func(ctx context.Context, prompt, model string, opts map[string]any) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return fn(ctx, prompt, model, opts)
	}
}

// SearchWithTimeout bounds each call to fn with timeout.
func SearchWithTimeout(fn SearchFunc, timeout time.Duration) SearchFunc {
	return func(ctx context.Context, query string, numResults int, opts map[string]any) ([]SearchResult, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return fn(ctx, query, numResults, opts)
	}
}

// EmbedWithTimeout bounds each call to fn with timeout.
func EmbedWithTimeout(fn EmbedFunc, timeout time.Duration) EmbedFunc {
	return func(ctx context.Context, text, model string, opts map[string]any) ([]float64, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return fn(ctx, text, model, opts)
	}
}
