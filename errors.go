package explore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Sentinel errors for common failure conditions across the pipeline.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrMissingCredential indicates a required credential (API key, password)
	// was absent from the resolved configuration.
	ErrMissingCredential = errors.New("missing credential")

	// ErrUnsupportedStrategy indicates a named embedding strategy is not in
	// the supported allow-list.
	ErrUnsupportedStrategy = errors.New("unsupported embedding strategy")

	// ErrInvalidConfig indicates the provided configuration is invalid or incomplete.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMalformedToolCall indicates the model returned a tool call whose
	// payload does not match any known tool schema.
	ErrMalformedToolCall = errors.New("malformed tool call")

	// ErrRetrievalFailed indicates the graph vector store could not serve a query.
	// The underlying error should be wrapped for additional context.
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrGenerationFailed indicates a model invocation failed.
	// The underlying error should be wrapped for additional context.
	ErrGenerationFailed = errors.New("generation failed")
)

// Error kinds categorize errors by their type.
const (
	// KindConfiguration represents errors related to configuration or credentials.
	KindConfiguration = "configuration"

	// KindValidation represents errors related to input validation.
	KindValidation = "validation"

	// KindRetrieval represents errors raised by the graph vector store.
	KindRetrieval = "retrieval"

	// KindGeneration represents errors raised by the tool-calling model.
	KindGeneration = "generation"

	// KindTimeout represents errors related to operation timeouts.
	KindTimeout = "timeout"

	// KindInternal represents internal pipeline errors.
	KindInternal = "internal"
)

// AgentGraphError is the single domain-level error type used across the
// pipeline. Lower-level components (embedding provider, graph vector store,
// tool-calling model) raise it instead of leaking transport-specific errors.
//
// AgentGraphError implements the error interface and supports error
// unwrapping, making it compatible with errors.Is() and errors.As().
//
// Example usage:
//
//	err := &AgentGraphError{
//		Op:   "Store.Retrieve",
//		Kind: KindRetrieval,
//		Err:  ErrRetrievalFailed,
//	}
type AgentGraphError struct {
	// Op is the operation that failed (e.g., "Provider.GetEmbeddings").
	Op string

	// Kind categorizes the error (e.g., KindConfiguration, KindRetrieval).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional).
	// This can include strategy names, turn IDs, or other debugging information.
	Context map[string]any
}

// Error implements the error interface, returning a formatted error message
// that includes the operation, kind, and underlying error.
func (e *AgentGraphError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("explore: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("explore: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("explore: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and errors.As()
// to work correctly with wrapped errors.
func (e *AgentGraphError) Unwrap() error {
	return e.Err
}

// Is implements error matching for AgentGraphError, allowing comparison based
// on the underlying error or the AgentGraphError itself.
func (e *AgentGraphError) Is(target error) bool {
	if target == nil {
		return false
	}

	// Check if target is an AgentGraphError with matching Kind
	if t, ok := target.(*AgentGraphError); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	// Delegate to underlying error
	return errors.Is(e.Err, target)
}

// WithContext returns a new AgentGraphError with the provided context added.
// This is useful for adding debugging information to errors.
func (e *AgentGraphError) WithContext(ctx map[string]any) *AgentGraphError {
	newErr := *e
	if newErr.Context == nil {
		newErr.Context = make(map[string]any)
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// NewConfigurationError creates a new AgentGraphError with KindConfiguration.
func NewConfigurationError(op string, err error) *AgentGraphError {
	return &AgentGraphError{
		Op:   op,
		Kind: KindConfiguration,
		Err:  err,
	}
}

// NewValidationError creates a new AgentGraphError with KindValidation.
func NewValidationError(op string, err error) *AgentGraphError {
	return &AgentGraphError{
		Op:   op,
		Kind: KindValidation,
		Err:  err,
	}
}

// NewRetrievalError creates a new AgentGraphError with KindRetrieval.
func NewRetrievalError(op string, err error) *AgentGraphError {
	return &AgentGraphError{
		Op:   op,
		Kind: KindRetrieval,
		Err:  err,
	}
}

// NewGenerationError creates a new AgentGraphError with KindGeneration.
func NewGenerationError(op string, err error) *AgentGraphError {
	return &AgentGraphError{
		Op:   op,
		Kind: KindGeneration,
		Err:  err,
	}
}

// NewTimeoutError creates a new AgentGraphError with KindTimeout.
func NewTimeoutError(op string, err error) *AgentGraphError {
	return &AgentGraphError{
		Op:   op,
		Kind: KindTimeout,
		Err:  err,
	}
}

// NewInternalError creates a new AgentGraphError with KindInternal.
func NewInternalError(op string, err error) *AgentGraphError {
	return &AgentGraphError{
		Op:   op,
		Kind: KindInternal,
		Err:  err,
	}
}

// CloseWithLog attempts to close the provided resource and logs any error
// at warning level. This is intended for use in defer statements to ensure
// cleanup errors are not silently ignored.
//
// The name parameter should describe the resource being closed (e.g.,
// "graph store", "metrics recorder"). If logger is nil, slog.Default() is used.
func CloseWithLog(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := closer.Close(); err != nil {
		logger.Warn("failed to close resource",
			"resource", name,
			"error", err)
	}
}
