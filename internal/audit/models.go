// Package audit records who did what to whose records. Verification and
// application transitions are admin actions with consequences for students,
// so each one leaves an append-only event.
package audit

import (
	"context"
	"time"

	id "placement/pkg/domain"
)

// EventType enumerates the audited actions.
type EventType string

const (
	EventFieldVerified      EventType = "field.verified"
	EventFieldRejected      EventType = "field.rejected"
	EventStudentVerifiedAll EventType = "student.verified_all"
	EventApplicationCreated EventType = "application.created"
	EventStatusTransition   EventType = "application.status_transition"
)

// Event is one audit record. Detail holds event-specific context (field path,
// old/new status, failed rules) as flat strings so sinks need no schema.
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	ActorID   id.UserID         `json:"actor_id"`
	StudentID id.StudentID      `json:"student_id"`
	Detail    map[string]string `json:"detail,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Appender is a write-only sink for audit events.
type Appender interface {
	Append(ctx context.Context, event Event) error
}

// Store is an audit sink that also serves reads.
type Store interface {
	Appender
	ListByStudent(ctx context.Context, studentID id.StudentID) ([]Event, error)
}
