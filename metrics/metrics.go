// Package metrics captures per-stage quality telemetry for agent turns.
//
// Each turn produces at most one record per pipeline stage, tagged so
// downstream evaluators can distinguish retrieval quality from generation
// quality. Recording is strictly fire-and-forget: a slow or failing metrics
// sink never adds latency or failure risk to a user-facing turn.
package metrics

import (
	"context"
	"time"
)

// Tag names the pipeline stage a record measures.
type Tag string

const (
	// TagRAG tags the retrieval stage.
	TagRAG Tag = "rag"

	// TagGeneration tags the model invocation stage.
	TagGeneration Tag = "generation"
)

// String returns the string representation of the tag.
func (t Tag) String() string {
	return string(t)
}

// IsValid checks if the tag is a recognized value.
func (t Tag) IsValid() bool {
	switch t {
	case TagRAG, TagGeneration:
		return true
	default:
		return false
	}
}

// Outcome is the result of a pipeline stage.
type Outcome string

const (
	// OutcomeSuccess marks a stage that completed.
	OutcomeSuccess Outcome = "success"

	// OutcomeFailure marks a stage that raised an error.
	OutcomeFailure Outcome = "failure"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// Record is one telemetry record attached to a turn.
type Record struct {
	// Tag names the stage measured.
	Tag Tag `json:"tag"`

	// Outcome is the stage result.
	Outcome Outcome `json:"outcome"`

	// TurnID identifies the turn the record belongs to.
	TurnID string `json:"turn_id"`

	// Timestamp is when the record was emitted.
	Timestamp time.Time `json:"timestamp"`
}

// Recorder accepts stage telemetry. Implementations must not block the
// caller and must never propagate recording failures.
type Recorder interface {
	// Record captures one stage outcome. Delivery is best-effort.
	Record(ctx context.Context, rec Record)
}

// Sink delivers records to an external collector. Sink errors are logged
// and swallowed by the recorder, never escalated.
type Sink interface {
	// Emit delivers one record.
	Emit(ctx context.Context, rec Record) error
}

// NopRecorder discards all records.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(ctx context.Context, rec Record) {}
