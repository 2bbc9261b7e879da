package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelSink records stage outcomes on an OpenTelemetry counter so they can
// be sliced by tag and outcome in any OTLP-compatible backend.
type OTelSink struct {
	stageCounter metric.Int64Counter
}

// NewOTelSink creates the counter instruments on the given meter.
func NewOTelSink(meter metric.Meter) (*OTelSink, error) {
	counter, err := meter.Int64Counter(
		"agent.turn.stage",
		metric.WithDescription("Agent turn stage outcomes, tagged by quality category"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create stage counter: %w", err)
	}

	return &OTelSink{stageCounter: counter}, nil
}

// Emit implements Sink.
func (s *OTelSink) Emit(ctx context.Context, rec Record) error {
	s.stageCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tag", rec.Tag.String()),
		attribute.String("outcome", rec.Outcome.String()),
		attribute.String("turn_id", rec.TurnID),
	))
	return nil
}
