package application

import (
	"context"

	id "placement/pkg/domain"
)

// Store persists applications.
//
// Implementations enforce one application per (student, job) pair and
// return sentinel.ErrAlreadyExists on the second attempt. Execute loads the
// application, runs validate, applies mutate and persists atomically so
// concurrent transitions cannot interleave.
type Store interface {
	Create(ctx context.Context, application *Application) error
	Find(ctx context.Context, applicationID id.ApplicationID) (*Application, error)
	FindByStudentAndJob(ctx context.Context, studentID id.StudentID, jobID id.JobID) (*Application, error)
	ListByStudent(ctx context.Context, studentID id.StudentID) ([]*Application, error)
	ListByJob(ctx context.Context, jobID id.JobID) ([]*Application, error)
	Execute(ctx context.Context, applicationID id.ApplicationID,
		validate func(*Application) error, mutate func(*Application)) (*Application, error)
}
