package application

import (
	"time"

	"placement/internal/posting"
	id "placement/pkg/domain"
	dErrors "placement/pkg/domain-errors"
)

// Status is the lifecycle state of an application.
type Status string

const (
	StatusApplied     Status = "applied"
	StatusShortlisted Status = "shortlisted"
	StatusInProgress  Status = "in-progress"
	StatusSelected    Status = "selected"
	StatusRejected    Status = "rejected"
)

// ParseStatus validates a status string at the trust boundary.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusApplied, StatusShortlisted, StatusInProgress, StatusSelected, StatusRejected:
		return Status(raw), nil
	}
	return "", dErrors.New(dErrors.CodeBadRequest, "unknown application status "+raw)
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusSelected || s == StatusRejected
}

// StatusChange is one entry in an application's transition history.
type StatusChange struct {
	From      Status             `json:"from"`
	To        Status             `json:"to"`
	Stage     posting.HiringStep `json:"stage,omitempty"`
	ActorID   id.UserID          `json:"actor_id"`
	Timestamp time.Time          `json:"timestamp"`
}

// Application tracks one student's candidacy for one posting. Stage is the
// position within the posting's hiring flow and only advances while the
// application is in progress.
type Application struct {
	ID        id.ApplicationID   `json:"id"`
	StudentID id.StudentID       `json:"student_id"`
	JobID     id.JobID           `json:"job_id"`
	ResumeID  id.ResumeID        `json:"resume_id"`
	Status    Status             `json:"status"`
	Stage     posting.HiringStep `json:"stage"`
	History   []StatusChange     `json:"history"`
	AppliedAt time.Time          `json:"applied_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewApplication creates an application in the applied state at the opening
// stage of the posting's hiring flow.
func NewApplication(applicationID id.ApplicationID, studentID id.StudentID, jobID id.JobID, resumeID id.ResumeID, firstStage posting.HiringStep, now time.Time) *Application {
	return &Application{
		ID:        applicationID,
		StudentID: studentID,
		JobID:     jobID,
		ResumeID:  resumeID,
		Status:    StatusApplied,
		Stage:     firstStage,
		History:   []StatusChange{},
		AppliedAt: now,
		UpdatedAt: now,
	}
}

// CanTransition checks whether the application may move to the target
// status. Terminal states admit nothing, including transitions to
// themselves. A same-status update is only valid when it repositions the
// stage, so an in-progress application can advance through the hiring flow.
func (a *Application) CanTransition(to Status, stage posting.HiringStep) error {
	if a.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"application is already "+string(a.Status))
	}
	if to == a.Status && stage == "" {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"application is already "+string(a.Status))
	}
	return nil
}

// ApplyTransition moves the application to the target status, recording the
// change. A non-empty stage repositions the application within the hiring
// flow. Callers must have validated with CanTransition first.
func (a *Application) ApplyTransition(to Status, stage posting.HiringStep, actorID id.UserID, now time.Time) {
	change := StatusChange{
		From:      a.Status,
		To:        to,
		Stage:     stage,
		ActorID:   actorID,
		Timestamp: now,
	}
	a.Status = to
	if stage != "" {
		a.Stage = stage
	}
	a.History = append(a.History, change)
	a.UpdatedAt = now
}
