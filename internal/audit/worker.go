package audit

import (
	"context"
	"log/slog"
)

// Worker drains an event channel into a store. Services emit through a
// buffered channel so a slow sink (Kafka under backpressure) never stalls a
// request; the worker is the only goroutine touching the sink.
type Worker struct {
	store  Appender
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Appender, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run consumes until the context is cancelled. Append failures are logged and
// dropped rather than retried: audit is best-effort by contract, the source
// of truth for state lives in the module stores.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"event_type", string(event.Type),
					"error", err,
				)
			}
		}
	}
}

// ChannelPublisher emits events into the worker's inbox, dropping on a full
// buffer instead of blocking the request path.
type ChannelPublisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewChannelPublisher(inbox chan<- Event, logger *slog.Logger) *ChannelPublisher {
	return &ChannelPublisher{inbox: inbox, logger: logger}
}

func (p *ChannelPublisher) Append(ctx context.Context, event Event) error {
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"event_type", string(event.Type),
		)
	}
	return nil
}
