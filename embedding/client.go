package embedding

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	explore "github.com/explore-ai/sdk"
)

// Client computes embedding vectors for text.
type Client interface {
	// EmbedQuery returns the embedding vector for the given text.
	// The vector length is strategy-dependent; the core only guarantees
	// it is non-empty.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Config returns the configuration the client was constructed with.
	Config() ClientConfig
}

// embeddingAPI is the slice of the OpenAI client the embedder depends on.
type embeddingAPI interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// openAIClient is the OpenAI-backed embedding client.
type openAIClient struct {
	api embeddingAPI
	cfg ClientConfig
}

// newOpenAIClient is the default Constructor.
func newOpenAIClient(cfg ClientConfig) (Client, error) {
	return &openAIClient{
		api: openai.NewClient(cfg.APIKey),
		cfg: cfg,
	}, nil
}

// Config returns the configuration the client was constructed with.
func (c *openAIClient) Config() ClientConfig {
	return c.cfg
}

// EmbedQuery embeds a single piece of text, normalizing newlines first when
// the client was configured to strip them.
func (c *openAIClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	const op = "Client.EmbedQuery"

	if c.cfg.StripNewLines {
		text = strings.ReplaceAll(text, "\n", " ")
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.cfg.Model),
	})
	if err != nil {
		return nil, explore.NewConfigurationError(op,
			fmt.Errorf("embedding request failed: %w", err))
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, explore.NewInternalError(op, errEmptyEmbedding)
	}

	return resp.Data[0].Embedding, nil
}
