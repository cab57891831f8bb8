package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "placement/pkg/domain"
	"placement/pkg/platform/sentinel"
)

type ProfileStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *ProfileStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestProfileStoreSuite(t *testing.T) {
	suite.Run(t, new(ProfileStoreSuite))
}

func (s *ProfileStoreSuite) newRecord(studentID id.StudentID, kind RecordKind, at time.Time) *Record {
	record, err := NewRecord(id.RecordID(uuid.New()), studentID, kind, nil, at)
	s.Require().NoError(err)
	return record
}

func (s *ProfileStoreSuite) TestProfiles() {
	studentID := id.StudentID(uuid.New())

	s.Run("returns ErrNotFound before first save", func() {
		_, err := s.store.FindProfile(s.ctx, studentID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("saves and finds a profile", func() {
		profile := NewBasicProfile(studentID, testTime)
		profile.ApplyEdit(map[string]string{"name": "Asha"}, testTime)
		s.Require().NoError(s.store.SaveProfile(s.ctx, profile))

		found, err := s.store.FindProfile(s.ctx, studentID)
		s.Require().NoError(err)
		s.Equal("Asha", found.Values["name"])
	})

	s.Run("returned profile is a copy", func() {
		found, err := s.store.FindProfile(s.ctx, studentID)
		s.Require().NoError(err)
		found.Values["name"] = "tampered"

		again, err := s.store.FindProfile(s.ctx, studentID)
		s.Require().NoError(err)
		s.Equal("Asha", again.Values["name"])
	})

	s.Run("execute applies validate then mutate", func() {
		updated, err := s.store.ExecuteProfile(s.ctx, studentID,
			func(p *BasicProfile) error { return p.CanEdit(map[string]string{"phone": "123"}) },
			func(p *BasicProfile) { p.ApplyEdit(map[string]string{"phone": "123"}, testTime) },
		)
		s.Require().NoError(err)
		s.Equal("123", updated.Values["phone"])
	})

	s.Run("validate failure leaves the profile untouched", func() {
		sentinelErr := sentinel.ErrInvalidState
		_, err := s.store.ExecuteProfile(s.ctx, studentID,
			func(p *BasicProfile) error { return sentinelErr },
			func(p *BasicProfile) { p.ApplyEdit(map[string]string{"phone": "999"}, testTime) },
		)
		s.Require().ErrorIs(err, sentinelErr)

		found, err := s.store.FindProfile(s.ctx, studentID)
		s.Require().NoError(err)
		s.Equal("123", found.Values["phone"])
	})
}

func (s *ProfileStoreSuite) TestRecords() {
	studentID := id.StudentID(uuid.New())

	s.Run("creates and finds a record", func() {
		record := s.newRecord(studentID, RecordKindProject, testTime)
		s.Require().NoError(s.store.CreateRecord(s.ctx, record))

		found, err := s.store.FindRecord(s.ctx, studentID, record.ID)
		s.Require().NoError(err)
		s.Equal(RecordKindProject, found.Kind)
	})

	s.Run("scopes lookups to the owning student", func() {
		record := s.newRecord(studentID, RecordKindExperience, testTime)
		s.Require().NoError(s.store.CreateRecord(s.ctx, record))

		_, err := s.store.FindRecord(s.ctx, id.StudentID(uuid.New()), record.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("lists records ordered by kind then creation", func() {
		earlier := testTime.Add(-time.Hour)
		first := s.newRecord(studentID, RecordKindEducation, earlier)
		second := s.newRecord(studentID, RecordKindEducation, testTime)
		s.Require().NoError(s.store.CreateRecord(s.ctx, second))
		s.Require().NoError(s.store.CreateRecord(s.ctx, first))

		records, err := s.store.ListRecords(s.ctx, studentID)
		s.Require().NoError(err)
		s.Require().GreaterOrEqual(len(records), 2)
		s.Equal(RecordKindEducation, records[0].Kind)
		s.Equal(first.ID, records[0].ID)
		s.Equal(second.ID, records[1].ID)
	})

	s.Run("execute persists the mutated record", func() {
		record := s.newRecord(studentID, RecordKindEducation, testTime)
		s.Require().NoError(s.store.CreateRecord(s.ctx, record))

		_, err := s.store.ExecuteRecord(s.ctx, studentID, record.ID,
			nil,
			func(r *Record) { r.ApplyEdit(map[string]string{"degree": "B.Tech"}, testTime) },
		)
		s.Require().NoError(err)

		found, err := s.store.FindRecord(s.ctx, studentID, record.ID)
		s.Require().NoError(err)
		s.Equal("B.Tech", found.Details["degree"].CurrentValue)
	})

	s.Run("deletes a record", func() {
		record := s.newRecord(studentID, RecordKindPosition, testTime)
		s.Require().NoError(s.store.CreateRecord(s.ctx, record))
		s.Require().NoError(s.store.DeleteRecord(s.ctx, studentID, record.ID))

		_, err := s.store.FindRecord(s.ctx, studentID, record.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		s.Require().ErrorIs(s.store.DeleteRecord(s.ctx, studentID, record.ID), sentinel.ErrNotFound)
	})
}
