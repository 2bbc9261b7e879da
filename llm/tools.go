package llm

import (
	"encoding/json"
	"fmt"
)

// ToolDef defines a tool that an LLM can invoke.
type ToolDef struct {
	// Name is the unique identifier for this tool.
	Name string

	// Description explains what the tool does and when to use it.
	// This helps the LLM decide when to invoke the tool.
	Description string

	// Parameters is a JSON Schema describing the tool's input parameters.
	Parameters map[string]any
}

// ToolCall represents an LLM's request to invoke a tool.
type ToolCall struct {
	// ID is a unique identifier for this tool call.
	// Used to match tool results back to the original call.
	ID string `json:"id,omitempty"`

	// Name is the name of the tool to invoke.
	Name string `json:"name"`

	// Arguments contains the tool parameters as a JSON string.
	// This should be parsed according to the tool's parameter schema.
	Arguments string `json:"arguments"`
}

// Validate checks if the tool definition is valid.
func (t *ToolDef) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if t.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}
	if t.Parameters == nil {
		return fmt.Errorf("tool parameters cannot be nil")
	}
	return nil
}

// ParseArguments parses the tool call arguments into the provided value.
// The value parameter should be a pointer to the struct that will receive
// the arguments.
func (c *ToolCall) ParseArguments(v any) error {
	if c.Arguments == "" {
		return fmt.Errorf("no arguments to parse")
	}
	return json.Unmarshal([]byte(c.Arguments), v)
}

// Validate checks if the tool call is well formed: it has a name and its
// arguments are valid JSON.
func (c *ToolCall) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("tool call name cannot be empty")
	}
	if c.Arguments == "" {
		return fmt.Errorf("tool call arguments cannot be empty")
	}

	var temp any
	if err := json.Unmarshal([]byte(c.Arguments), &temp); err != nil {
		return fmt.Errorf("invalid JSON in arguments: %w", err)
	}

	return nil
}

// FinalAnswerToolName is the terminal tool recognized by the agent graph.
// A turn is complete only when the model produces a call to this tool.
const FinalAnswerToolName = "final_answer"

// FinalAnswer holds the arguments of the terminal final_answer tool call:
// the structured answer, the research narrative behind it, and three
// suggested follow-up questions.
type FinalAnswer struct {
	Answer               string `json:"answer"`
	ResearchSteps        string `json:"researchSteps"`
	SuggestQuestionOne   string `json:"suggestQuestionOne"`
	SuggestQuestionTwo   string `json:"suggestQuestionTwo"`
	SuggestQuestionThree string `json:"suggestQuestionThree"`
}

// Validate checks that every required final_answer argument is present.
func (f *FinalAnswer) Validate() error {
	switch {
	case f.Answer == "":
		return &ValidationError{Field: "answer", Message: "answer cannot be empty"}
	case f.ResearchSteps == "":
		return &ValidationError{Field: "researchSteps", Message: "researchSteps cannot be empty"}
	case f.SuggestQuestionOne == "":
		return &ValidationError{Field: "suggestQuestionOne", Message: "suggestQuestionOne cannot be empty"}
	case f.SuggestQuestionTwo == "":
		return &ValidationError{Field: "suggestQuestionTwo", Message: "suggestQuestionTwo cannot be empty"}
	case f.SuggestQuestionThree == "":
		return &ValidationError{Field: "suggestQuestionThree", Message: "suggestQuestionThree cannot be empty"}
	}
	return nil
}

// ToolCall serializes the final answer back into a final_answer tool call.
func (f *FinalAnswer) ToolCall() (ToolCall, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return ToolCall{}, fmt.Errorf("failed to marshal final answer: %w", err)
	}
	return ToolCall{Name: FinalAnswerToolName, Arguments: string(data)}, nil
}

// ParseFinalAnswer parses and validates a final_answer tool call.
// It fails if the call names a different tool, carries invalid JSON, or is
// missing any required argument.
func ParseFinalAnswer(call ToolCall) (*FinalAnswer, error) {
	if call.Name != FinalAnswerToolName {
		return nil, fmt.Errorf("expected %s tool call, got %q", FinalAnswerToolName, call.Name)
	}

	var answer FinalAnswer
	if err := call.ParseArguments(&answer); err != nil {
		return nil, fmt.Errorf("failed to parse final answer arguments: %w", err)
	}

	if err := answer.Validate(); err != nil {
		return nil, err
	}

	return &answer, nil
}

// FinalAnswerToolDef returns the tool definition bound to the model so it can
// emit the terminal final_answer call.
func FinalAnswerToolDef() ToolDef {
	required := []string{
		"answer",
		"researchSteps",
		"suggestQuestionOne",
		"suggestQuestionTwo",
		"suggestQuestionThree",
	}

	properties := map[string]any{
		"answer": map[string]any{
			"type":        "string",
			"description": "The answer to the user's question, grounded in the retrieved context.",
		},
		"researchSteps": map[string]any{
			"type":        "string",
			"description": "A short narrative of the retrieval and reasoning steps taken.",
		},
		"suggestQuestionOne": map[string]any{
			"type":        "string",
			"description": "A suggested follow-up question.",
		},
		"suggestQuestionTwo": map[string]any{
			"type":        "string",
			"description": "A second suggested follow-up question.",
		},
		"suggestQuestionThree": map[string]any{
			"type":        "string",
			"description": "A third suggested follow-up question.",
		},
	}

	return ToolDef{
		Name:        FinalAnswerToolName,
		Description: "Deliver the final answer plus three suggested follow-up questions. Call this exactly once when the answer is ready.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}

// ValidationError represents a field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
