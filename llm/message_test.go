package llm

import (
	"strings"
	"testing"
)

func TestConversation_Validate(t *testing.T) {
	tests := []struct {
		name         string
		conversation Conversation
		wantErr      bool
	}{
		{
			name: "user message last",
			conversation: Conversation{
				{Role: RoleSystem, Content: "You answer questions about the portfolio owner."},
				{Role: RoleUser, Content: "Tell me about your experience"},
			},
			wantErr: false,
		},
		{
			name:         "empty conversation",
			conversation: Conversation{},
			wantErr:      true,
		},
		{
			name: "assistant message last",
			conversation: Conversation{
				{Role: RoleUser, Content: "Hello"},
				{Role: RoleAssistant, Content: "Hi there"},
			},
			wantErr: true,
		},
		{
			name: "invalid role",
			conversation: Conversation{
				{Role: Role("narrator"), Content: "Once upon a time"},
				{Role: RoleUser, Content: "Hello"},
			},
			wantErr: true,
		},
		{
			name: "empty user content",
			conversation: Conversation{
				{Role: RoleUser, Content: ""},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conversation.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConversation_LatestUserMessage(t *testing.T) {
	tests := []struct {
		name         string
		conversation Conversation
		want         string
	}{
		{
			name: "single user message",
			conversation: Conversation{
				{Role: RoleUser, Content: "Tell me about your experience"},
			},
			want: "Tell me about your experience",
		},
		{
			name: "most recent user message wins",
			conversation: Conversation{
				{Role: RoleUser, Content: "first"},
				{Role: RoleAssistant, Content: "answer"},
				{Role: RoleUser, Content: "second"},
			},
			want: "second",
		},
		{
			name: "no user message",
			conversation: Conversation{
				{Role: RoleSystem, Content: "system prompt"},
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conversation.LatestUserMessage(); got != tt.want {
				t.Errorf("LatestUserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConversation_Append_DoesNotMutateReceiver(t *testing.T) {
	original := Conversation{
		{Role: RoleUser, Content: "Hello"},
	}

	extended := original.Append(Message{Role: RoleAssistant, Content: "Hi"})

	if len(original) != 1 {
		t.Fatalf("original conversation length = %d, want 1", len(original))
	}
	if len(extended) != 2 {
		t.Fatalf("extended conversation length = %d, want 2", len(extended))
	}
}

func TestConversation_Render(t *testing.T) {
	tests := []struct {
		name         string
		conversation Conversation
		want         string
	}{
		{
			name: "roles and content joined by newlines",
			conversation: Conversation{
				{Role: RoleSystem, Content: "Answer about the portfolio"},
				{Role: RoleUser, Content: "Tell me about your experience"},
			},
			want: "system: Answer about the portfolio\nuser: Tell me about your experience",
		},
		{
			name: "control characters stripped",
			conversation: Conversation{
				{Role: RoleUser, Content: "line one\nline\ttwo\r"},
			},
			want: "user: line one line two",
		},
		{
			name: "escape artifacts stripped",
			conversation: Conversation{
				{Role: RoleUser, Content: `first\nsecond\tthird`},
			},
			want: "user: first second third",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.conversation.Render()
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
			if strings.Contains(got, `\n`) || strings.Contains(got, `\t`) {
				t.Errorf("Render() contains raw escape artifacts: %q", got)
			}
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	valid := []Role{RoleSystem, RoleUser, RoleAssistant, RoleTool}
	for _, r := range valid {
		if !r.IsValid() {
			t.Errorf("IsValid() = false for %q, want true", r)
		}
	}
	if Role("narrator").IsValid() {
		t.Error("IsValid() = true for unknown role, want false")
	}
}
