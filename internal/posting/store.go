package posting

import (
	"context"

	id "placement/pkg/domain"
)

// Store persists job postings.
//
// Implementations return sentinel.ErrNotFound for missing postings and
// sentinel.ErrAlreadyExists on duplicate IDs; the service translates
// sentinels into domain errors.
type Store interface {
	Create(ctx context.Context, posting *Posting) error
	Find(ctx context.Context, jobID id.JobID) (*Posting, error)
	List(ctx context.Context) ([]*Posting, error)

	// Execute atomically loads a posting, runs validate, applies mutate and
	// persists the result. When validate fails the posting is left untouched
	// and the validation error is returned as-is.
	Execute(ctx context.Context, jobID id.JobID, validate func(*Posting) error, mutate func(*Posting)) (*Posting, error)
}
