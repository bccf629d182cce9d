package providers

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIChat adapts an OpenAI client to the LLMFunc shape. Recognized
// opts: "system" (string), "temperature" (float64), "max_tokens" (int),
// "stop" ([]string). An empty model falls back to gpt-3.5-turbo.
func OpenAIChat(client *openai.Client) LLMFunc {
	return func(ctx context.Context, prompt, model string, opts map[string]any) (string, error) {
		if model == "" {
			model = openai.GPT3Dot5Turbo
		}

		messages := []openai.ChatCompletionMessage{}
		if system, ok := opts["system"].(string); ok && system != "" {
			messages = append(messages, openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleSystem, Content: system,
			})
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser, Content: prompt,
		})

		req := openai.ChatCompletionRequest{Model: model, Messages: messages}
		if temp, ok := opts["temperature"].(float64); ok {
			req.Temperature = float32(temp)
		}
		if maxTokens, ok := opts["max_tokens"].(int); ok {
			req.MaxTokens = maxTokens
		}
		if stop, ok := opts["stop"].([]string); ok {
			req.Stop = stop
		}

		resp, err := client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("openai chat call failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("openai chat returned no choices for model %s", model)
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}
}

// OpenAIEmbedding adapts an OpenAI client to the EmbedFunc shape. An
// empty model falls back to text-embedding-3-small.
func OpenAIEmbedding(client *openai.Client) EmbedFunc {
	return func(ctx context.Context, text, model string, _ map[string]any) ([]float64, error) {
		if model == "" {
			model = string(openai.SmallEmbedding3)
		}

		resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(model),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedding call failed: %w", err)
		}
		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("openai embedding returned no vectors for model %s", model)
		}

		vec := make([]float64, len(resp.Data[0].Embedding))
		for i, v := range resp.Data[0].Embedding {
			vec[i] = float64(v)
		}
		return vec, nil
	}
}
