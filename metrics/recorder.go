package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultQueueSize is the bounded queue capacity of the QueuedRecorder.
const DefaultQueueSize = 256

// drainTimeout bounds sink delivery for a single record.
const drainTimeout = 5 * time.Second

// QueuedRecorder is the production Recorder: records are pushed onto a
// bounded queue and drained by a background goroutine, so the caller never
// waits on a sink. When the queue is full the record is dropped and the
// drop is logged.
type QueuedRecorder struct {
	sinks  []Sink
	logger *slog.Logger

	queue chan Record
	done  chan struct{}
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// RecorderOption configures a QueuedRecorder.
type RecorderOption func(*recorderConfig)

type recorderConfig struct {
	queueSize int
	logger    *slog.Logger
}

// WithQueueSize overrides the bounded queue capacity.
func WithQueueSize(n int) RecorderOption {
	return func(c *recorderConfig) {
		c.queueSize = n
	}
}

// WithRecorderLogger sets the logger used for drops and sink failures.
func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(c *recorderConfig) {
		c.logger = logger
	}
}

// NewQueuedRecorder starts a recorder draining to the given sinks.
// Close must be called to flush and stop the drain goroutine.
func NewQueuedRecorder(sinks []Sink, opts ...RecorderOption) *QueuedRecorder {
	cfg := recorderConfig{
		queueSize: DefaultQueueSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.queueSize <= 0 {
		cfg.queueSize = DefaultQueueSize
	}

	r := &QueuedRecorder{
		sinks:  sinks,
		logger: cfg.logger,
		queue:  make(chan Record, cfg.queueSize),
		done:   make(chan struct{}),
	}

	r.wg.Add(1)
	go r.drain()

	return r
}

// Record enqueues one stage outcome without blocking. A missing timestamp
// is filled in here so sinks see when the stage finished, not when the
// queue drained.
func (r *QueuedRecorder) Record(ctx context.Context, rec Record) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	select {
	case r.queue <- rec:
	default:
		r.logger.Warn("metrics queue full, dropping record",
			"tag", rec.Tag,
			"outcome", rec.Outcome,
			"turn_id", rec.TurnID)
	}
}

// drain delivers queued records to every sink until Close.
func (r *QueuedRecorder) drain() {
	defer r.wg.Done()

	for {
		select {
		case rec := <-r.queue:
			r.deliver(rec)
		case <-r.done:
			// Flush whatever is left before exiting.
			for {
				select {
				case rec := <-r.queue:
					r.deliver(rec)
				default:
					return
				}
			}
		}
	}
}

// deliver emits one record to all sinks, logging and swallowing failures.
func (r *QueuedRecorder) deliver(rec Record) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for _, sink := range r.sinks {
		if err := sink.Emit(ctx, rec); err != nil {
			r.logger.Warn("metrics sink emit failed",
				"tag", rec.Tag,
				"outcome", rec.Outcome,
				"turn_id", rec.TurnID,
				"error", err)
		}
	}
}

// Close flushes pending records and stops the drain goroutine. It is safe
// to call more than once.
func (r *QueuedRecorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
	return nil
}
