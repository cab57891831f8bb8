// Package domain holds the typed identifiers shared across modules.
//
// IDs are distinct named types over uuid.UUID so a StudentID can never be
// passed where a JobID is expected. Parse* functions are the trust boundary:
// every ID arriving from the outside goes through one of them.
package domain

import (
	"github.com/google/uuid"

	dErrors "placement/pkg/domain-errors"
)

type (
	// StudentID identifies a student and their record set.
	StudentID uuid.UUID
	// UserID identifies any authenticated caller (student or administrator).
	UserID uuid.UUID
	// JobID identifies a job posting.
	JobID uuid.UUID
	// ApplicationID identifies a single (student, job) application.
	ApplicationID uuid.UUID
	// RecordID identifies one aggregate record (education, experience, ...).
	RecordID uuid.UUID
	// ResumeID references an uploaded resume held by the file collaborator.
	ResumeID uuid.UUID
)

func (id StudentID) String() string     { return uuid.UUID(id).String() }
func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id JobID) String() string         { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id RecordID) String() string      { return uuid.UUID(id).String() }
func (id ResumeID) String() string      { return uuid.UUID(id).String() }

func (id StudentID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }
func (id JobID) IsZero() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ResumeID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
func parseUUID(raw, what string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be the nil UUID")
	}
	return parsed, nil
}

func ParseStudentID(raw string) (StudentID, error) {
	parsed, err := parseUUID(raw, "student id")
	return StudentID(parsed), err
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user id")
	return UserID(parsed), err
}

func ParseJobID(raw string) (JobID, error) {
	parsed, err := parseUUID(raw, "job id")
	return JobID(parsed), err
}

func ParseApplicationID(raw string) (ApplicationID, error) {
	parsed, err := parseUUID(raw, "application id")
	return ApplicationID(parsed), err
}

func ParseRecordID(raw string) (RecordID, error) {
	parsed, err := parseUUID(raw, "record id")
	return RecordID(parsed), err
}

func ParseResumeID(raw string) (ResumeID, error) {
	parsed, err := parseUUID(raw, "resume id")
	return ResumeID(parsed), err
}
