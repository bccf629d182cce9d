package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flowkit "flowkit"
	"flowkit/providers"
)

func llmRegistry(t *testing.T, fn providers.LLMFunc) *providers.Registry[providers.LLMFunc] {
	t.Helper()
	reg := providers.NewRegistry[providers.LLMFunc]()
	require.NoError(t, reg.Register("test", fn))
	return reg
}

func TestLLMRendersTemplateFromShared(t *testing.T) {
	var gotPrompt, gotModel string
	reg := llmRegistry(t, func(_ context.Context, prompt, model string, _ map[string]any) (string, error) {
		gotPrompt, gotModel = prompt, model
		return "a summary", nil
	})

	node := LLM(reg, LLMConfig{
		Model:     "test/gpt-4",
		Template:  "Summarize {document} for {audience}",
		OutputKey: "summary",
	})

	shared := flowkit.Shared{"document": "the report", "audience": "executives"}
	action, err := node.Run(context.Background(), shared)
	require.NoError(t, err)

	assert.Equal(t, flowkit.DefaultAction, action)
	assert.Equal(t, "Summarize the report for executives", gotPrompt)
	assert.Equal(t, "gpt-4", gotModel)
	assert.Equal(t, "a summary", shared["summary"])
}

func TestLLMMissingPlaceholderRendersEmpty(t *testing.T) {
	var gotPrompt string
	reg := llmRegistry(t, func(_ context.Context, prompt, _ string, _ map[string]any) (string, error) {
		gotPrompt = prompt
		return "ok", nil
	})

	node := LLM(reg, LLMConfig{Template: "Q: {question} A:"})
	_, err := node.Run(context.Background(), flowkit.Shared{})
	require.NoError(t, err)
	assert.Equal(t, "Q:  A:", gotPrompt)
}

func TestLLMInputKeyAliasing(t *testing.T) {
	var gotPrompt string
	reg := llmRegistry(t, func(_ context.Context, prompt, _ string, _ map[string]any) (string, error) {
		gotPrompt = prompt
		return "ok", nil
	})

	// Default template is "{input}"; a custom input key feeds it.
	node := LLM(reg, LLMConfig{InputKey: "question"})
	shared := flowkit.Shared{"question": "why is the sky blue?"}
	_, err := node.Run(context.Background(), shared)
	require.NoError(t, err)
	assert.Equal(t, "why is the sky blue?", gotPrompt)
	assert.Equal(t, "ok", shared["output"])
}

func TestLLMProviderErrorWithRetry(t *testing.T) {
	calls := 0
	reg := llmRegistry(t, func(_ context.Context, _, _ string, _ map[string]any) (string, error) {
		calls++
		return "", errors.New("rate limited")
	})

	node := LLM(reg, LLMConfig{MaxAttempts: 2})
	shared := flowkit.Shared{"input": "hi"}
	_, err := node.Run(context.Background(), shared)

	var failure *flowkit.ExecFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 2, failure.Attempts)
	assert.Equal(t, 2, calls)
	assert.NotContains(t, shared, "output")
}

func TestLLMUnknownProvider(t *testing.T) {
	reg := llmRegistry(t, func(_ context.Context, _, _ string, _ map[string]any) (string, error) {
		return "ok", nil
	})

	node := LLM(reg, LLMConfig{Model: "missing/gpt-4", MaxAttempts: 1})
	_, err := node.Run(context.Background(), flowkit.Shared{"input": "hi"})
	assert.ErrorIs(t, err, providers.ErrNoProvider)
}

func TestPlaceholderKeysDeduplicates(t *testing.T) {
	keys := placeholderKeys("{a} then {b} then {a} again")
	assert.Equal(t, []string{"a", "b"}, keys)
}
