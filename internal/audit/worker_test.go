package audit

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "placement/pkg/domain"
	"placement/pkg/requestcontext"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestPublisherStampsEvents(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store)

	actorID := id.UserID(uuid.New())
	studentID := id.StudentID(uuid.New())
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(requestcontext.WithUserID(context.Background(), actorID), now)

	require.NoError(t, publisher.Emit(ctx, Event{
		Type:      EventFieldVerified,
		StudentID: studentID,
		Detail:    map[string]string{"field": "cgpa"},
	}))

	events, err := store.ListByStudent(ctx, studentID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.Equal(t, actorID, events[0].ActorID)
	assert.Equal(t, now, events[0].Timestamp)
}

func TestWorkerDrainsInbox(t *testing.T) {
	store := NewInMemoryStore()
	inbox := make(chan Event, 8)
	worker := NewWorker(store, inbox, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	studentID := id.StudentID(uuid.New())
	publisher := NewChannelPublisher(inbox, quietLogger())
	for range 3 {
		require.NoError(t, publisher.Append(ctx, Event{
			ID:        uuid.NewString(),
			Type:      EventStatusTransition,
			StudentID: studentID,
		}))
	}

	assert.Eventually(t, func() bool {
		events, err := store.ListByStudent(context.Background(), studentID)
		return err == nil && len(events) == 3
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestChannelPublisherDropsWhenFull(t *testing.T) {
	inbox := make(chan Event, 1)
	publisher := NewChannelPublisher(inbox, quietLogger())

	require.NoError(t, publisher.Append(context.Background(), Event{ID: "first"}))
	// No consumer running; the second event is dropped, not blocked on.
	require.NoError(t, publisher.Append(context.Background(), Event{ID: "second"}))

	assert.Len(t, inbox, 1)
	assert.Equal(t, "first", (<-inbox).ID)
}
