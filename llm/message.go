package llm

import (
	"strconv"
	"strings"
	"unicode"
)

// Role represents the role of a message sender in a conversation.
type Role string

const (
	// RoleSystem represents system-level instructions or context.
	RoleSystem Role = "system"

	// RoleUser represents messages from the user.
	RoleUser Role = "user"

	// RoleAssistant represents messages from the AI assistant.
	RoleAssistant Role = "assistant"

	// RoleTool represents tool execution results.
	RoleTool Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is one of the defined constants.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	default:
		return false
	}
}

// Message represents a single message in a conversation.
type Message struct {
	// Role indicates who sent the message (system, user, assistant, or tool).
	Role Role `json:"role"`

	// Content is the text content of the message.
	Content string `json:"content"`

	// ToolCalls contains tool invocations requested by the assistant.
	// Only valid when Role is RoleAssistant.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID matches a prior assistant tool call.
	// Only valid when Role is RoleTool.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// IsValid validates that the message has appropriate fields set for its role.
func (m Message) IsValid() bool {
	switch m.Role {
	case RoleSystem, RoleUser:
		return m.Content != "" && len(m.ToolCalls) == 0 && m.ToolCallID == ""
	case RoleAssistant:
		// Assistant can have content, tool calls, or both
		return m.Content != "" || len(m.ToolCalls) > 0
	case RoleTool:
		return m.ToolCallID != "" && m.Content != ""
	default:
		return false
	}
}

// Conversation is the ordered message sequence for one turn. It is owned by
// the agent graph for the duration of the turn and persisted externally
// between turns.
type Conversation []Message

// Validate checks the invariant required before a turn: the conversation is
// non-empty, every message is well formed, and the last message is from the
// user.
func (c Conversation) Validate() error {
	if len(c) == 0 {
		return &ValidationError{Field: "messages", Message: "conversation cannot be empty"}
	}
	for i, m := range c {
		if !m.IsValid() {
			return &ValidationError{Field: "messages", Message: "message " + strconv.Itoa(i) + " is invalid for role " + m.Role.String()}
		}
	}
	if c[len(c)-1].Role != RoleUser {
		return &ValidationError{Field: "messages", Message: "last message must have role user"}
	}
	return nil
}

// LatestUserMessage returns the content of the most recent user message,
// or an empty string if none exists.
func (c Conversation) LatestUserMessage() string {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Role == RoleUser {
			return c[i].Content
		}
	}
	return ""
}

// Append returns a new conversation with the message added. The receiver is
// not modified, so a caller's snapshot stays valid across a turn.
func (c Conversation) Append(m Message) Conversation {
	out := make(Conversation, 0, len(c)+1)
	out = append(out, c...)
	out = append(out, m)
	return out
}

// Render produces a normalized single-string rendering of the conversation,
// one "role: content" line per message, with control characters stripped.
// The mock model uses it to report what it received.
func (c Conversation) Render() string {
	var b strings.Builder
	for i, m := range c {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.Role.String())
		b.WriteString(": ")
		b.WriteString(stripControl(m.Content))
	}
	return b.String()
}

// stripControl removes control characters (including raw escape artifacts
// like \r, \t, and backslash-escaped control sequences) from s, collapsing
// them to single spaces.
func stripControl(s string) string {
	// Unescape literal two-character sequences first so canned payloads that
	// arrive pre-serialized do not leak "\n" artifacts into renderings.
	replacer := strings.NewReplacer(`\n`, " ", `\t`, " ", `\r`, " ")
	s = replacer.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
