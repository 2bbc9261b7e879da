package embedding

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	explore "github.com/explore-ai/sdk"
)

// countingConstructor records how many times the client constructor runs.
type countingConstructor struct {
	calls int
	cfg   ClientConfig
}

func (c *countingConstructor) construct(cfg ClientConfig) (Client, error) {
	c.calls++
	c.cfg = cfg
	return &staticClient{cfg: cfg}, nil
}

// staticClient is a Client that returns a fixed vector.
type staticClient struct {
	cfg ClientConfig
}

func (s *staticClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (s *staticClient) Config() ClientConfig {
	return s.cfg
}

func envWith(key, value string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		if name == key {
			return value, true
		}
		return "", false
	}
}

func emptyEnv(string) (string, bool) {
	return "", false
}

func TestProvider_GetEmbeddings_Success(t *testing.T) {
	ctor := &countingConstructor{}
	provider := NewProvider(
		WithEnvLookup(envWith(APIKeyEnvVar, "sk-test")),
		WithConstructor(ctor.construct),
	)

	client, err := provider.GetEmbeddings(TextEmbedding3Small)
	require.NoError(t, err)
	require.NotNil(t, client)

	assert.Equal(t, 1, ctor.calls)
	assert.Equal(t, ClientConfig{
		APIKey:        "sk-test",
		Model:         TextEmbedding3Small,
		StripNewLines: true,
	}, client.Config())
}

func TestProvider_GetEmbeddings_MissingCredential(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
	}{
		{name: "valid strategy", strategy: TextEmbedding3Small},
		{name: "invalid strategy", strategy: "some-other-model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctor := &countingConstructor{}
			provider := NewProvider(
				WithEnvLookup(emptyEnv),
				WithConstructor(ctor.construct),
			)

			// Missing credential fails before strategy validation or
			// construction, regardless of strategy validity.
			_, err := provider.GetEmbeddings(tt.strategy)
			require.Error(t, err)
			assert.ErrorIs(t, err, explore.ErrMissingCredential)
			assert.Contains(t, err.Error(), "OPENAI_API_KEY environment variable required")
			assert.Zero(t, ctor.calls, "constructor must not run without a credential")
		})
	}
}

func TestProvider_GetEmbeddings_UnsupportedStrategy(t *testing.T) {
	tests := []string{
		"text-embedding-ada-002",
		"text-embedding-3-large",
		"",
		"TEXT-EMBEDDING-3-SMALL",
	}

	for _, strategy := range tests {
		t.Run("strategy "+strategy, func(t *testing.T) {
			ctor := &countingConstructor{}
			provider := NewProvider(
				WithEnvLookup(envWith(APIKeyEnvVar, "sk-test")),
				WithConstructor(ctor.construct),
			)

			_, err := provider.GetEmbeddings(strategy)
			require.Error(t, err)
			assert.ErrorIs(t, err, explore.ErrUnsupportedStrategy)
			assert.Contains(t, err.Error(), TextEmbedding3Small,
				"error must enumerate the supported strategies")
			assert.Zero(t, ctor.calls, "constructor must not run for unsupported strategies")
		})
	}
}

func TestProvider_GetEmbeddings_ConstructorError(t *testing.T) {
	provider := NewProvider(
		WithEnvLookup(envWith(APIKeyEnvVar, "sk-test")),
		WithConstructor(func(cfg ClientConfig) (Client, error) {
			return nil, errors.New("boom")
		}),
	)

	_, err := provider.GetEmbeddings(TextEmbedding3Small)
	require.Error(t, err)

	var agErr *explore.AgentGraphError
	require.ErrorAs(t, err, &agErr)
	assert.Equal(t, explore.KindConfiguration, agErr.Kind)
}

// fakeEmbeddingAPI records the request it receives.
type fakeEmbeddingAPI struct {
	got  openai.EmbeddingRequest
	resp openai.EmbeddingResponse
	err  error
}

func (f *fakeEmbeddingAPI) CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	f.got = req.(openai.EmbeddingRequest)
	if f.err != nil {
		return openai.EmbeddingResponse{}, f.err
	}
	return f.resp, nil
}

func TestOpenAIClient_EmbedQuery_StripsNewlines(t *testing.T) {
	fake := &fakeEmbeddingAPI{
		resp: openai.EmbeddingResponse{
			Data: []openai.Embedding{{Embedding: []float32{0.5, 0.25}}},
		},
	}
	client := &openAIClient{
		api: fake,
		cfg: ClientConfig{APIKey: "sk-test", Model: TextEmbedding3Small, StripNewLines: true},
	}

	vector, err := client.EmbedQuery(context.Background(), "line one\nline two")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vector)

	require.Len(t, fake.got.Input, 1)
	assert.Equal(t, "line one line two", fake.got.Input.([]string)[0])
	assert.Equal(t, TextEmbedding3Small, string(fake.got.Model))
}

func TestOpenAIClient_EmbedQuery_EmptyResponse(t *testing.T) {
	fake := &fakeEmbeddingAPI{resp: openai.EmbeddingResponse{}}
	client := &openAIClient{
		api: fake,
		cfg: ClientConfig{APIKey: "sk-test", Model: TextEmbedding3Small, StripNewLines: true},
	}

	_, err := client.EmbedQuery(context.Background(), "text")
	require.Error(t, err)
}
