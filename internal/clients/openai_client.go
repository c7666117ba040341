package clients

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const openAIRequestTimeout = 60 * time.Second

// OpenAIClient wraps the OpenAI SDK behind the two capabilities the pipeline
// consumes: text completion and embeddings.
type OpenAIClient struct {
	client          *openai.Client
	completionModel string
	embeddingModel  string
}

func NewOpenAIClient(apiKey, completionModel, embeddingModel string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	config.HTTPClient = &http.Client{
		Timeout: openAIRequestTimeout,
	}

	return &OpenAIClient{
		client:          openai.NewClientWithConfig(config),
		completionModel: completionModel,
		embeddingModel:  embeddingModel,
	}
}

// Complete runs one chat completion. When jsonResponse is set the model is
// constrained to return a JSON object. Retries transient failures with
// exponential backoff before giving up.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string, jsonResponse bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.completionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}
	if jsonResponse {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var resp openai.ChatCompletionResponse
	err := c.withRetry(ctx, "completion", func() error {
		var callErr error
		resp, callErr = c.client.CreateChatCompletion(ctx, req)
		return callErr
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("[OpenAIClient] completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed returns one vector per input text, in input order.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var resp openai.EmbeddingResponse
	err := c.withRetry(ctx, "embedding", func() error {
		var callErr error
		resp, callErr = c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(c.embeddingModel),
			Input: texts,
		})
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("[OpenAIClient] embedding count mismatch: got %d, want %d",
			len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
}

func (c *OpenAIClient) withRetry(ctx context.Context, op string, call func() error) error {
	backoff := INITIAL_BACKOFF
	var err error

	for attempt := 1; attempt <= MAX_RETRIES; attempt++ {
		start := time.Now()
		if err = call(); err == nil {
			return nil
		}

		slog.Warn("[OpenAIClient] Request failed, retrying...",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))

		if attempt == MAX_RETRIES {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}

	return fmt.Errorf("[OpenAIClient] %s failed after %d attempts: %w", op, MAX_RETRIES, err)
}
