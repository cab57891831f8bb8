//go:build integration

package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"placement/internal/application"
	id "placement/pkg/domain"
	dErrors "placement/pkg/domain-errors"
	"placement/pkg/platform/sentinel"
	"placement/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *application.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = application.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

var appliedAt = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newApplication() *application.Application {
	return application.NewApplication(id.ApplicationID(uuid.New()), id.StudentID(uuid.New()),
		id.JobID(uuid.New()), id.ResumeID(uuid.New()), "online_test", appliedAt)
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	created := newApplication()
	s.Require().NoError(s.store.Create(ctx, created))

	found, err := s.store.Find(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
	s.Equal(created.ResumeID, found.ResumeID)
	s.Equal(application.StatusApplied, found.Status)
	s.Empty(found.History)
	s.True(created.AppliedAt.Equal(found.AppliedAt))

	_, err = s.store.Find(ctx, id.ApplicationID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicatePair() {
	ctx := context.Background()
	created := newApplication()
	s.Require().NoError(s.store.Create(ctx, created))

	retry := application.NewApplication(id.ApplicationID(uuid.New()), created.StudentID,
		created.JobID, id.ResumeID(uuid.New()), "online_test", appliedAt)
	s.ErrorIs(s.store.Create(ctx, retry), sentinel.ErrAlreadyExists)
}

func (s *PostgresStoreSuite) TestFindByStudentAndJob() {
	ctx := context.Background()
	created := newApplication()
	s.Require().NoError(s.store.Create(ctx, created))

	found, err := s.store.FindByStudentAndJob(ctx, created.StudentID, created.JobID)
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)

	_, err = s.store.FindByStudentAndJob(ctx, created.StudentID, id.JobID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListing() {
	ctx := context.Background()
	studentID := id.StudentID(uuid.New())
	jobID := id.JobID(uuid.New())

	first := application.NewApplication(id.ApplicationID(uuid.New()), studentID, jobID,
		id.ResumeID(uuid.New()), "online_test", appliedAt)
	second := application.NewApplication(id.ApplicationID(uuid.New()), studentID,
		id.JobID(uuid.New()), id.ResumeID(uuid.New()), "online_test", appliedAt.Add(time.Hour))
	other := application.NewApplication(id.ApplicationID(uuid.New()),
		id.StudentID(uuid.New()), jobID, id.ResumeID(uuid.New()), "online_test", appliedAt.Add(2*time.Hour))
	for _, a := range []*application.Application{second, other, first} {
		s.Require().NoError(s.store.Create(ctx, a))
	}

	byStudent, err := s.store.ListByStudent(ctx, studentID)
	s.Require().NoError(err)
	s.Require().Len(byStudent, 2)
	s.Equal(first.ID, byStudent[0].ID)
	s.Equal(second.ID, byStudent[1].ID)

	byJob, err := s.store.ListByJob(ctx, jobID)
	s.Require().NoError(err)
	s.Require().Len(byJob, 2)
	s.Equal(first.ID, byJob[0].ID)
	s.Equal(other.ID, byJob[1].ID)
}

func (s *PostgresStoreSuite) TestExecutePersistsHistory() {
	ctx := context.Background()
	created := newApplication()
	s.Require().NoError(s.store.Create(ctx, created))

	actorID := id.UserID(uuid.New())
	updated, err := s.store.Execute(ctx, created.ID,
		func(a *application.Application) error { return a.CanTransition(application.StatusShortlisted, "") },
		func(a *application.Application) {
			a.ApplyTransition(application.StatusShortlisted, "interview", actorID, appliedAt.Add(time.Hour))
		})
	s.Require().NoError(err)
	s.Equal(application.StatusShortlisted, updated.Status)

	found, err := s.store.Find(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(application.StatusShortlisted, found.Status)
	s.Require().Len(found.History, 1)
	s.Equal(application.StatusApplied, found.History[0].From)
	s.Equal(actorID, found.History[0].ActorID)
}

func (s *PostgresStoreSuite) TestExecuteValidationFailureRollsBack() {
	ctx := context.Background()
	created := newApplication()
	s.Require().NoError(s.store.Create(ctx, created))

	_, err := s.store.Execute(ctx, created.ID,
		func(*application.Application) error {
			return dErrors.New(dErrors.CodeInvalidTransition, "no transitions allowed")
		},
		func(a *application.Application) { a.Status = application.StatusSelected })
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	found, err := s.store.Find(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(application.StatusApplied, found.Status)
}
