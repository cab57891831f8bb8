package audit

import (
	"context"

	"github.com/google/uuid"

	"placement/pkg/requestcontext"
)

// Publisher captures structured audit events. It writes through the Appender
// interface so tests can swap sinks easily.
type Publisher struct {
	sink Appender
}

func NewPublisher(sink Appender) *Publisher {
	return &Publisher{sink: sink}
}

// Emit stamps and appends one event. The actor and timestamp come from the
// request context when the caller did not set them.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.ActorID.IsZero() {
		event.ActorID = requestcontext.UserID(ctx)
	}
	return p.sink.Append(ctx, event)
}
