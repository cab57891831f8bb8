package application

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placement/internal/posting"
	id "placement/pkg/domain"
	dErrors "placement/pkg/domain-errors"
)

var testTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestApplication() *Application {
	return NewApplication(id.ApplicationID(uuid.New()), id.StudentID(uuid.New()),
		id.JobID(uuid.New()), id.ResumeID(uuid.New()), "online_test", testTime)
}

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"applied", "shortlisted", "in-progress", "selected", "rejected"} {
		status, err := ParseStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, Status(raw), status)
	}
	_, err := ParseStatus("hired")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	// The wire literal is hyphenated.
	_, err = ParseStatus("in_progress")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusSelected.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusApplied.IsTerminal())
	assert.False(t, StatusShortlisted.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
}

func TestNewApplication(t *testing.T) {
	application := newTestApplication()
	assert.Equal(t, StatusApplied, application.Status)
	assert.Equal(t, posting.HiringStep("online_test"), application.Stage)
	assert.Empty(t, application.History)
}

func TestTransitions(t *testing.T) {
	actorID := id.UserID(uuid.New())

	t.Run("walks the lifecycle forward", func(t *testing.T) {
		application := newTestApplication()
		for _, to := range []Status{StatusShortlisted, StatusInProgress, StatusSelected} {
			require.NoError(t, application.CanTransition(to, ""))
			application.ApplyTransition(to, "", actorID, testTime)
		}
		assert.Equal(t, StatusSelected, application.Status)
		assert.Len(t, application.History, 3)
		assert.Equal(t, StatusInProgress, application.History[2].From)
	})

	t.Run("terminal states admit nothing", func(t *testing.T) {
		for _, terminal := range []Status{StatusSelected, StatusRejected} {
			application := newTestApplication()
			application.ApplyTransition(terminal, "", actorID, testTime)

			for _, to := range []Status{StatusApplied, StatusShortlisted, StatusInProgress, StatusSelected, StatusRejected} {
				err := application.CanTransition(to, "interview")
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition),
					"%s -> %s", terminal, to)
			}
		}
	})

	t.Run("self transition without a stage is invalid", func(t *testing.T) {
		application := newTestApplication()
		err := application.CanTransition(StatusApplied, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("same status may advance the stage", func(t *testing.T) {
		application := newTestApplication()
		application.ApplyTransition(StatusInProgress, "online_test", actorID, testTime)

		require.NoError(t, application.CanTransition(StatusInProgress, "interview"))
		application.ApplyTransition(StatusInProgress, "interview", actorID, testTime)
		assert.Equal(t, StatusInProgress, application.Status)
		assert.Equal(t, posting.HiringStep("interview"), application.Stage)
	})

	t.Run("rejection is allowed from any non-terminal state", func(t *testing.T) {
		application := newTestApplication()
		require.NoError(t, application.CanTransition(StatusRejected, ""))
	})

	t.Run("stage moves only when provided", func(t *testing.T) {
		application := newTestApplication()
		application.ApplyTransition(StatusInProgress, "interview", actorID, testTime)
		assert.Equal(t, posting.HiringStep("interview"), application.Stage)

		application.ApplyTransition(StatusShortlisted, "", actorID, testTime)
		assert.Equal(t, posting.HiringStep("interview"), application.Stage)
	})

	t.Run("history records actor and endpoints", func(t *testing.T) {
		application := newTestApplication()
		application.ApplyTransition(StatusShortlisted, "", actorID, testTime)

		require.Len(t, application.History, 1)
		change := application.History[0]
		assert.Equal(t, StatusApplied, change.From)
		assert.Equal(t, StatusShortlisted, change.To)
		assert.Equal(t, actorID, change.ActorID)
	})
}
