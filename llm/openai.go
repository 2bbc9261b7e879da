package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	explore "github.com/explore-ai/sdk"
)

// DefaultInvokeTimeout is the latency budget applied to model invocations
// when no explicit timeout is configured.
const DefaultInvokeTimeout = 60 * time.Second

// chatCompleter is the slice of the OpenAI client the model depends on.
// Tests substitute it to exercise the model without network access.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIModel is the production ChatModel variant backed by the OpenAI chat
// completions API. Values are immutable; BindTools and WithConfig return
// reconfigured copies.
type OpenAIModel struct {
	client chatCompleter
	model  string
	tools  []ToolDef
	config Config
}

// NewOpenAIModel creates a tool-calling model bound to the given API key and
// model name. The API key must be non-empty; resolution from the environment
// is the caller's concern.
func NewOpenAIModel(apiKey, model string) (*OpenAIModel, error) {
	if apiKey == "" {
		return nil, explore.NewConfigurationError("NewOpenAIModel",
			fmt.Errorf("%w: api key is empty", explore.ErrMissingCredential))
	}
	if model == "" {
		return nil, explore.NewConfigurationError("NewOpenAIModel",
			fmt.Errorf("%w: model name is empty", explore.ErrInvalidConfig))
	}

	return &OpenAIModel{
		client: openai.NewClient(apiKey),
		model:  model,
		config: Config{Timeout: DefaultInvokeTimeout},
	}, nil
}

// BindTools returns a model that exposes the given tools to generation.
func (m *OpenAIModel) BindTools(tools ...ToolDef) ChatModel {
	clone := *m
	clone.tools = append(append([]ToolDef(nil), m.tools...), tools...)
	return &clone
}

// WithConfig returns a model reconfigured with the given options.
func (m *OpenAIModel) WithConfig(opts ...ConfigOption) ChatModel {
	clone := *m
	clone.config.ApplyOptions(opts...)
	return &clone
}

// Invoke sends the conversation to the OpenAI API and returns the model's
// response. Transport failures, latency budget expiry, and malformed
// tool-call payloads all surface as AgentGraphError.
func (m *OpenAIModel) Invoke(ctx context.Context, conversation Conversation) (*ModelResponse, error) {
	const op = "OpenAIModel.Invoke"

	timeout := m.config.Timeout
	if timeout <= 0 {
		timeout = DefaultInvokeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: toOpenAIMessages(conversation),
		Tools:    toOpenAITools(m.tools),
	}
	if m.config.Temperature != nil {
		req.Temperature = float32(*m.config.Temperature)
	}
	if m.config.MaxTokens != nil {
		req.MaxTokens = *m.config.MaxTokens
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, explore.NewTimeoutError(op,
				fmt.Errorf("%w: invocation exceeded %s", explore.ErrGenerationFailed, timeout))
		}
		return nil, explore.NewGenerationError(op,
			fmt.Errorf("%w: %v", explore.ErrGenerationFailed, err))
	}

	if len(resp.Choices) == 0 {
		return nil, explore.NewGenerationError(op,
			fmt.Errorf("%w: response contained no choices", explore.ErrGenerationFailed))
	}

	choice := resp.Choices[0].Message
	out := &ModelResponse{Content: choice.Content}

	for _, tc := range choice.ToolCalls {
		call := ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}
		if err := call.Validate(); err != nil {
			return nil, explore.NewGenerationError(op,
				fmt.Errorf("%w: %v", explore.ErrMalformedToolCall, err))
		}
		out.ToolCalls = append(out.ToolCalls, call)
	}

	return out, nil
}

// toOpenAIMessages converts the conversation into the wire representation.
func toOpenAIMessages(conversation Conversation) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(conversation))
	for _, m := range conversation {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		messages = append(messages, msg)
	}
	return messages
}

// toOpenAITools converts bound tool definitions into the wire representation.
func toOpenAITools(tools []ToolDef) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}
