package llm

import (
	"context"
	"time"
)

// ModelResponse represents the outcome of one model invocation.
type ModelResponse struct {
	// Content is the free-text portion of the response, if any.
	Content string

	// ToolCalls contains tool invocations requested by the model,
	// in the order the model emitted them.
	ToolCalls []ToolCall
}

// HasToolCalls returns true if the response contains tool calls.
func (r *ModelResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// FinalAnswerCall returns the first final_answer tool call in the response,
// or false if the response carries none.
func (r *ModelResponse) FinalAnswerCall() (ToolCall, bool) {
	for _, call := range r.ToolCalls {
		if call.Name == FinalAnswerToolName {
			return call, true
		}
	}
	return ToolCall{}, false
}

// ChatModel is the tool-calling model capability the agent graph is bound to.
// Two variants implement it: the OpenAI-backed model and the deterministic
// mock used in tests and demos. The interface is the substitution seam
// between them, making it the primary test boundary.
//
// BindTools and WithConfig are fluent reconfiguration steps: each returns a
// ChatModel honoring the same contract. Implementations may return a new
// value or, when reconfiguration is meaningless (the mock), the receiver.
type ChatModel interface {
	// Invoke sends the conversation to the model and returns its response.
	// It may suspend on network I/O and honors ctx cancellation.
	Invoke(ctx context.Context, conversation Conversation) (*ModelResponse, error)

	// BindTools returns a model that exposes the given tools to generation.
	BindTools(tools ...ToolDef) ChatModel

	// WithConfig returns a model reconfigured with the given options.
	WithConfig(opts ...ConfigOption) ChatModel
}

// Config holds per-model invocation settings.
type Config struct {
	// Temperature controls randomness in the output (0.0 to 1.0 here; the
	// mock enforces the closed range at construction).
	Temperature *float64

	// MaxTokens limits the maximum number of tokens to generate.
	MaxTokens *int

	// Timeout is the upper bound on a single invocation. Expiry surfaces as
	// a generation failure, never a hang.
	Timeout time.Duration
}

// ConfigOption is a functional option for model configuration.
type ConfigOption func(*Config)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = &t
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = &n
	}
}

// WithTimeout sets the invocation latency budget.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

// ApplyOptions applies a set of options to the config.
func (c *Config) ApplyOptions(opts ...ConfigOption) {
	for _, opt := range opts {
		opt(c)
	}
}
