package profile

import (
	"context"

	id "placement/pkg/domain"
)

// Store persists basic profiles and aggregate records. Implementations return
// sentinel errors; the service translates them into domain errors.
//
// Execute* run validate and mutate while holding the entity's lock (mutex in
// memory, row lock in postgres) so a verify decision and the value it was
// made against cannot drift apart between read and write.
type Store interface {
	SaveProfile(ctx context.Context, profile *BasicProfile) error
	FindProfile(ctx context.Context, studentID id.StudentID) (*BasicProfile, error)
	ExecuteProfile(ctx context.Context, studentID id.StudentID,
		validate func(*BasicProfile) error, mutate func(*BasicProfile)) (*BasicProfile, error)

	CreateRecord(ctx context.Context, record *Record) error
	FindRecord(ctx context.Context, studentID id.StudentID, recordID id.RecordID) (*Record, error)
	ListRecords(ctx context.Context, studentID id.StudentID) ([]*Record, error)
	ExecuteRecord(ctx context.Context, studentID id.StudentID, recordID id.RecordID,
		validate func(*Record) error, mutate func(*Record)) (*Record, error)
	DeleteRecord(ctx context.Context, studentID id.StudentID, recordID id.RecordID) error
}
