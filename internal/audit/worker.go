package audit

import (
	"context"
	"log/slog"
	"time"
)

// Sink receives batches of events bound for the broker.
type Sink interface {
	Publish(ctx context.Context, events []Event) error
}

// Worker drains the outbox to the sink on an interval. Events stay in the
// outbox until the sink confirms them, so a broker outage never loses events.
type Worker struct {
	store     Store
	sink      Sink
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type WorkerOption func(w *Worker)

func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) { w.logger = logger }
}

func WithInterval(d time.Duration) WorkerOption {
	return func(w *Worker) { w.interval = d }
}

func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) { w.batchSize = n }
}

func NewWorker(store Store, sink Sink, opts ...WorkerOption) *Worker {
	w := &Worker{
		store:     store,
		sink:      sink,
		logger:    slog.Default(),
		interval:  5 * time.Second,
		batchSize: 100,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drains the outbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.logger.Error("audit drain failed", "error", err)
			}
		}
	}
}

// Drain ships one batch. Exposed so tests and shutdown paths can flush
// without waiting for the ticker.
func (w *Worker) Drain(ctx context.Context) error {
	for {
		events, err := w.store.FetchUnpublished(ctx, w.batchSize)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		if err := w.sink.Publish(ctx, events); err != nil {
			return err
		}
		ids := make([]string, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		if err := w.store.MarkPublished(ctx, ids); err != nil {
			return err
		}
		if len(events) < w.batchSize {
			return nil
		}
	}
}
