// Package embedding resolves named embedding strategies to configured
// embedding clients.
//
// A strategy is a model identifier validated against a fixed allow-list
// before any credential is spent: unsupported names and missing API keys
// fail fast, without constructing a client.
package embedding

import (
	"errors"
	"fmt"
	"os"
	"strings"

	explore "github.com/explore-ai/sdk"
)

// APIKeyEnvVar is the environment variable holding the OpenAI API key.
const APIKeyEnvVar = "OPENAI_API_KEY"

// TextEmbedding3Small is the only embedding strategy currently supported.
const TextEmbedding3Small = "text-embedding-3-small"

// SupportedStrategies returns the allow-list of embedding strategy names.
func SupportedStrategies() []string {
	return []string{TextEmbedding3Small}
}

// IsSupportedStrategy reports whether name is in the allow-list.
func IsSupportedStrategy(name string) bool {
	for _, s := range SupportedStrategies() {
		if s == name {
			return true
		}
	}
	return false
}

// ClientConfig is the configuration handed to the embedding client
// constructor once a strategy has been validated.
type ClientConfig struct {
	// APIKey authenticates against the embedding API.
	APIKey string

	// Model is the embedding model name; always equal to the strategy name.
	Model string

	// StripNewLines requests newline normalization of input text before
	// embedding. Newlines skew similarity scoring, so it is always set.
	StripNewLines bool
}

// Constructor builds an embedding client from a validated configuration.
// The default constructs the OpenAI-backed client; tests substitute it to
// assert it is never called on the failure paths.
type Constructor func(cfg ClientConfig) (Client, error)

// Provider resolves embedding strategies to configured clients.
type Provider struct {
	lookupEnv func(string) (string, bool)
	construct Constructor
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithEnvLookup substitutes the environment lookup used for credential
// resolution.
func WithEnvLookup(lookup func(string) (string, bool)) ProviderOption {
	return func(p *Provider) {
		p.lookupEnv = lookup
	}
}

// WithConstructor substitutes the embedding client constructor.
func WithConstructor(construct Constructor) ProviderOption {
	return func(p *Provider) {
		p.construct = construct
	}
}

// NewProvider creates a Provider resolving credentials from the process
// environment and constructing OpenAI-backed clients.
func NewProvider(opts ...ProviderOption) *Provider {
	p := &Provider{
		lookupEnv: os.LookupEnv,
		construct: newOpenAIClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetEmbeddings validates the strategy and resolves a configured embedding
// client for it.
//
// Preconditions are checked before the constructor runs: a missing API key
// or an unsupported strategy fails without spending any credential.
func (p *Provider) GetEmbeddings(strategy string) (Client, error) {
	const op = "Provider.GetEmbeddings"

	apiKey, ok := p.lookupEnv(APIKeyEnvVar)
	if !ok || apiKey == "" {
		return nil, explore.NewConfigurationError(op,
			fmt.Errorf("%w: %s environment variable required", explore.ErrMissingCredential, APIKeyEnvVar))
	}

	if !IsSupportedStrategy(strategy) {
		return nil, explore.NewValidationError(op,
			fmt.Errorf("%w: %q is not supported, supported strategies: %s",
				explore.ErrUnsupportedStrategy, strategy, strings.Join(SupportedStrategies(), ", ")))
	}

	client, err := p.construct(ClientConfig{
		APIKey:        apiKey,
		Model:         strategy,
		StripNewLines: true,
	})
	if err != nil {
		return nil, explore.NewConfigurationError(op, err)
	}

	return client, nil
}

// errEmptyEmbedding is returned when the backend produces an empty vector.
var errEmptyEmbedding = errors.New("embedding response is empty")
