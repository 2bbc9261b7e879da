package llm

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	explore "github.com/explore-ai/sdk"
)

// fakeCompleter substitutes the OpenAI API with a scripted response.
type fakeCompleter struct {
	resp openai.ChatCompletionResponse
	err  error
	got  *openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = &req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return f.resp, nil
}

func newTestModel(t *testing.T, fake *fakeCompleter) *OpenAIModel {
	t.Helper()
	model, err := NewOpenAIModel("test-key", "gpt-4o-mini")
	require.NoError(t, err)
	model.client = fake
	return model
}

func TestNewOpenAIModel_Validation(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		model   string
		wantErr error
	}{
		{name: "valid", apiKey: "key", model: "gpt-4o-mini", wantErr: nil},
		{name: "missing key", apiKey: "", model: "gpt-4o-mini", wantErr: explore.ErrMissingCredential},
		{name: "missing model", apiKey: "key", model: "", wantErr: explore.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOpenAIModel(tt.apiKey, tt.model)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOpenAIModel_Invoke(t *testing.T) {
	fake := &fakeCompleter{
		resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Content: "",
						ToolCalls: []openai.ToolCall{
							{
								ID:   "call-1",
								Type: openai.ToolTypeFunction,
								Function: openai.FunctionCall{
									Name:      FinalAnswerToolName,
									Arguments: `{"answer":"a","researchSteps":"r","suggestQuestionOne":"1","suggestQuestionTwo":"2","suggestQuestionThree":"3"}`,
								},
							},
						},
					},
				},
			},
		},
	}

	model := newTestModel(t, fake)
	bound := model.BindTools(FinalAnswerToolDef()).WithConfig(WithTemperature(0.2))

	resp, err := bound.Invoke(context.Background(), Conversation{
		{Role: RoleSystem, Content: "context"},
		{Role: RoleUser, Content: "question"},
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, FinalAnswerToolName, resp.ToolCalls[0].Name)
	assert.Equal(t, "call-1", resp.ToolCalls[0].ID)

	// The request carries the bound tool and the converted conversation.
	require.NotNil(t, fake.got)
	require.Len(t, fake.got.Tools, 1)
	assert.Equal(t, FinalAnswerToolName, fake.got.Tools[0].Function.Name)
	require.Len(t, fake.got.Messages, 2)
	assert.Equal(t, "user", fake.got.Messages[1].Role)
	assert.InDelta(t, 0.2, float64(fake.got.Temperature), 0.001)
}

func TestOpenAIModel_Invoke_TransportError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("connection refused")}
	model := newTestModel(t, fake)

	_, err := model.Invoke(context.Background(), Conversation{{Role: RoleUser, Content: "q"}})
	require.Error(t, err)

	var agErr *explore.AgentGraphError
	require.ErrorAs(t, err, &agErr)
	assert.Equal(t, explore.KindGeneration, agErr.Kind)
	assert.ErrorIs(t, err, explore.ErrGenerationFailed)
}

func TestOpenAIModel_Invoke_MalformedToolCall(t *testing.T) {
	fake := &fakeCompleter{
		resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						ToolCalls: []openai.ToolCall{
							{
								ID:   "call-1",
								Type: openai.ToolTypeFunction,
								Function: openai.FunctionCall{
									Name:      FinalAnswerToolName,
									Arguments: `{"answer":`,
								},
							},
						},
					},
				},
			},
		},
	}

	model := newTestModel(t, fake)
	_, err := model.Invoke(context.Background(), Conversation{{Role: RoleUser, Content: "q"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, explore.ErrMalformedToolCall)
}

func TestOpenAIModel_Invoke_EmptyChoices(t *testing.T) {
	fake := &fakeCompleter{resp: openai.ChatCompletionResponse{}}
	model := newTestModel(t, fake)

	_, err := model.Invoke(context.Background(), Conversation{{Role: RoleUser, Content: "q"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, explore.ErrGenerationFailed)
}

func TestOpenAIModel_BindToolsDoesNotMutateReceiver(t *testing.T) {
	model := newTestModel(t, &fakeCompleter{})

	bound := model.BindTools(FinalAnswerToolDef())

	assert.Empty(t, model.tools)
	assert.Len(t, bound.(*OpenAIModel).tools, 1)
}
