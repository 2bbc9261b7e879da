package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	explore "github.com/explore-ai/sdk"
)

// DefaultMockDelay is the fixed simulated latency applied to every mock
// invocation. The delay is deliberate: it lets streaming and loading-state
// logic be exercised deterministically without real network variance.
const DefaultMockDelay = 1500 * time.Millisecond

// Sleeper suspends for the given duration or until the context is cancelled.
// Tests inject a fake to observe the delay without a wall-clock wait.
type Sleeper func(ctx context.Context, d time.Duration) error

// realSleep is the default Sleeper backed by time.Timer.
func realSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MockModel is the deterministic ChatModel variant used in tests and demos.
//
// With no canned response it replays a fixed placeholder final_answer call,
// so every code path that expects a terminal tool call gets one with zero
// configuration. With a canned response it deserializes the pre-serialized
// tool call, injects a researchSteps field derived from the normalized
// rendering of the incoming conversation, and returns it as the sole call.
//
// BindTools and WithConfig are accepted for interface parity but are no-ops:
// the mock's output is canned, so tool binding cannot change it.
type MockModel struct {
	delay   time.Duration
	sleep   Sleeper
	canned  *ToolCall
	content string
}

// MockOption configures a MockModel at construction time.
type MockOption func(*mockConfig)

type mockConfig struct {
	temperature *float64
	delay       time.Duration
	sleep       Sleeper
	canned      string
	content     string
}

// WithMockTemperature sets the simulated sampling temperature. Values outside
// the closed range [0, 1] are rejected at construction, before any simulated
// work begins.
func WithMockTemperature(t float64) MockOption {
	return func(c *mockConfig) {
		c.temperature = &t
	}
}

// WithMockDelay overrides the fixed simulated latency.
func WithMockDelay(d time.Duration) MockOption {
	return func(c *mockConfig) {
		c.delay = d
	}
}

// WithMockSleeper substitutes the sleep primitive, letting tests observe the
// simulated delay without waiting it out.
func WithMockSleeper(s Sleeper) MockOption {
	return func(c *mockConfig) {
		c.sleep = s
	}
}

// WithCannedResponse supplies a pre-serialized tool call (JSON with "name"
// and "arguments" fields) replayed by every invocation.
func WithCannedResponse(serialized string) MockOption {
	return func(c *mockConfig) {
		c.canned = serialized
	}
}

// WithMockContent sets the free-text content returned alongside the tool call.
func WithMockContent(content string) MockOption {
	return func(c *mockConfig) {
		c.content = content
	}
}

// NewMockModel constructs the mock variant. Construction arguments are
// validated eagerly: a temperature outside [0, 1] or an unparseable canned
// response fails here, not at invoke time.
func NewMockModel(opts ...MockOption) (*MockModel, error) {
	const op = "NewMockModel"

	cfg := mockConfig{
		delay: DefaultMockDelay,
		sleep: realSleep,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.temperature != nil && (*cfg.temperature < 0 || *cfg.temperature > 1) {
		return nil, explore.NewValidationError(op,
			errors.New("Temperature must be between 0 and 1"))
	}

	m := &MockModel{
		delay:   cfg.delay,
		sleep:   cfg.sleep,
		content: cfg.content,
	}

	if cfg.canned != "" {
		var call ToolCall
		if err := json.Unmarshal([]byte(cfg.canned), &call); err != nil {
			return nil, explore.NewValidationError(op,
				fmt.Errorf("%w: canned response is not a serialized tool call: %v",
					explore.ErrMalformedToolCall, err))
		}
		if call.Name == "" {
			return nil, explore.NewValidationError(op,
				fmt.Errorf("%w: canned response is missing a tool name", explore.ErrMalformedToolCall))
		}
		m.canned = &call
	}

	return m, nil
}

// BindTools returns the same instance; the mock ignores tool binding.
func (m *MockModel) BindTools(tools ...ToolDef) ChatModel {
	return m
}

// WithConfig returns the same instance; the mock's behavior is fixed at
// construction.
func (m *MockModel) WithConfig(opts ...ConfigOption) ChatModel {
	return m
}

// Invoke suspends for the fixed simulated delay, then replays the canned or
// default final_answer tool call.
func (m *MockModel) Invoke(ctx context.Context, conversation Conversation) (*ModelResponse, error) {
	const op = "MockModel.Invoke"

	if err := m.sleep(ctx, m.delay); err != nil {
		return nil, explore.NewGenerationError(op,
			fmt.Errorf("%w: %v", explore.ErrGenerationFailed, err))
	}

	if m.canned == nil {
		call, err := defaultFinalAnswer().ToolCall()
		if err != nil {
			return nil, explore.NewInternalError(op, err)
		}
		return &ModelResponse{Content: m.content, ToolCalls: []ToolCall{call}}, nil
	}

	call, err := m.withResearchSteps(*m.canned, conversation)
	if err != nil {
		return nil, explore.NewGenerationError(op,
			fmt.Errorf("%w: %v", explore.ErrMalformedToolCall, err))
	}

	return &ModelResponse{Content: m.content, ToolCalls: []ToolCall{call}}, nil
}

// withResearchSteps rewrites the canned call's arguments so researchSteps
// reflects the conversation the mock actually received.
func (m *MockModel) withResearchSteps(call ToolCall, conversation Conversation) (ToolCall, error) {
	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return ToolCall{}, fmt.Errorf("canned arguments are not valid JSON: %w", err)
		}
	}

	args["researchSteps"] = "Received: " + conversation.Render()

	data, err := json.Marshal(args)
	if err != nil {
		return ToolCall{}, fmt.Errorf("failed to re-serialize canned arguments: %w", err)
	}
	call.Arguments = string(data)
	return call, nil
}

// defaultFinalAnswer is the zero-configuration terminal tool call.
func defaultFinalAnswer() *FinalAnswer {
	return &FinalAnswer{
		Answer:               "This is a mock answer about the portfolio owner.",
		ResearchSteps:        "Looked up the knowledge graph and summarized the top passages.",
		SuggestQuestionOne:   "What projects have you worked on?",
		SuggestQuestionTwo:   "What technologies do you use most?",
		SuggestQuestionThree: "What is your professional background?",
	}
}
