package explore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// TestSentinelErrors verifies that all sentinel errors are defined correctly.
func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "ErrMissingCredential",
			err:  ErrMissingCredential,
			want: "missing credential",
		},
		{
			name: "ErrUnsupportedStrategy",
			err:  ErrUnsupportedStrategy,
			want: "unsupported embedding strategy",
		},
		{
			name: "ErrInvalidConfig",
			err:  ErrInvalidConfig,
			want: "invalid configuration",
		},
		{
			name: "ErrMalformedToolCall",
			err:  ErrMalformedToolCall,
			want: "malformed tool call",
		},
		{
			name: "ErrRetrievalFailed",
			err:  ErrRetrievalFailed,
			want: "retrieval failed",
		},
		{
			name: "ErrGenerationFailed",
			err:  ErrGenerationFailed,
			want: "generation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatalf("sentinel error %s is nil", tt.name)
			}
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("error message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAgentGraphError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AgentGraphError
		want []string
	}{
		{
			name: "with underlying error",
			err: &AgentGraphError{
				Op:   "Store.Retrieve",
				Kind: KindRetrieval,
				Err:  ErrRetrievalFailed,
			},
			want: []string{"Store.Retrieve", "retrieval", "retrieval failed"},
		},
		{
			name: "without underlying error",
			err: &AgentGraphError{
				Op:   "Provider.GetEmbeddings",
				Kind: KindConfiguration,
			},
			want: []string{"Provider.GetEmbeddings", "configuration"},
		},
		{
			name: "with context",
			err: &AgentGraphError{
				Op:      "Graph.Run",
				Kind:    KindGeneration,
				Err:     ErrGenerationFailed,
				Context: map[string]any{"turn_id": "t-1"},
			},
			want: []string{"Graph.Run", "generation", "turn_id", "t-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(msg, want) {
					t.Errorf("error message %q missing %q", msg, want)
				}
			}
		})
	}
}

func TestAgentGraphError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("%w: connection refused", ErrRetrievalFailed)
	err := NewRetrievalError("Store.Retrieve", cause)

	if !errors.Is(err, ErrRetrievalFailed) {
		t.Error("errors.Is should reach the wrapped sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the direct cause")
	}

	var agentErr *AgentGraphError
	if !errors.As(err, &agentErr) {
		t.Fatal("errors.As should find the AgentGraphError")
	}
	if agentErr.Kind != KindRetrieval {
		t.Errorf("Kind = %q, want %q", agentErr.Kind, KindRetrieval)
	}
}

func TestAgentGraphError_IsMatchesKind(t *testing.T) {
	err := NewTimeoutError("OpenAIModel.Invoke", errors.New("deadline exceeded"))

	if !errors.Is(err, &AgentGraphError{Kind: KindTimeout}) {
		t.Error("errors.Is should match on Kind alone")
	}
	if errors.Is(err, &AgentGraphError{Kind: KindRetrieval}) {
		t.Error("errors.Is should not match a different Kind")
	}
	if !errors.Is(err, &AgentGraphError{Kind: KindTimeout, Op: "OpenAIModel.Invoke"}) {
		t.Error("errors.Is should match Kind plus Op")
	}
	if errors.Is(err, &AgentGraphError{Kind: KindTimeout, Op: "Other.Op"}) {
		t.Error("errors.Is should not match a different Op")
	}
}

func TestAgentGraphError_WithContext(t *testing.T) {
	base := NewGenerationError("Graph.Run", ErrGenerationFailed)
	enriched := base.WithContext(map[string]any{"turn_id": "t-1"})

	if base.Context != nil {
		t.Error("WithContext must not mutate the receiver")
	}
	if enriched.Context["turn_id"] != "t-1" {
		t.Error("context not applied")
	}
}

func TestKindConstructors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  *AgentGraphError
		kind string
	}{
		{"configuration", NewConfigurationError("op", cause), KindConfiguration},
		{"validation", NewValidationError("op", cause), KindValidation},
		{"retrieval", NewRetrievalError("op", cause), KindRetrieval},
		{"generation", NewGenerationError("op", cause), KindGeneration},
		{"timeout", NewTimeoutError("op", cause), KindTimeout},
		{"internal", NewInternalError("op", cause), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", tt.err.Kind, tt.kind)
			}
			if !errors.Is(tt.err, cause) {
				t.Error("cause not wrapped")
			}
		})
	}
}

// failingCloser always fails on Close.
type failingCloser struct{}

func (failingCloser) Close() error {
	return errors.New("close failed")
}

func TestCloseWithLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	CloseWithLog(failingCloser{}, logger, "graph store")
	if !strings.Contains(buf.String(), "graph store") {
		t.Errorf("log output missing resource name: %s", buf.String())
	}

	// Nil closer and nil logger must not panic.
	CloseWithLog(nil, nil, "nothing")
	CloseWithLog(io.NopCloser(strings.NewReader("")), nil, "reader")
}
