package posting

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "placement/pkg/domain"
	"placement/pkg/platform/sentinel"
)

type PostingStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *PostingStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestPostingStoreSuite(t *testing.T) {
	suite.Run(t, new(PostingStoreSuite))
}

func (s *PostingStoreSuite) TestCreateAndFind() {
	s.Run("find unknown returns not found", func() {
		_, err := s.store.Find(s.ctx, id.JobID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("created posting is readable", func() {
		posting := newTestPosting(s.T(), Eligibility{})
		s.Require().NoError(s.store.Create(s.ctx, posting))

		found, err := s.store.Find(s.ctx, posting.ID)
		s.Require().NoError(err)
		s.Equal(posting.Company, found.Company)
		s.Equal(posting.Flow, found.Flow)
	})

	s.Run("duplicate id conflicts", func() {
		posting := newTestPosting(s.T(), Eligibility{})
		s.Require().NoError(s.store.Create(s.ctx, posting))
		s.ErrorIs(s.store.Create(s.ctx, posting), sentinel.ErrAlreadyExists)
	})

	s.Run("returned posting is a copy", func() {
		posting := newTestPosting(s.T(), Eligibility{Branches: []string{"CSE"}})
		s.Require().NoError(s.store.Create(s.ctx, posting))

		found, err := s.store.Find(s.ctx, posting.ID)
		s.Require().NoError(err)
		found.Company = "mutated"
		found.Eligibility.Branches = append(found.Eligibility.Branches, "EEE")

		again, err := s.store.Find(s.ctx, posting.ID)
		s.Require().NoError(err)
		s.Equal(posting.Company, again.Company)
		s.Equal(posting.Eligibility.Branches, again.Eligibility.Branches)
	})
}

func (s *PostingStoreSuite) TestExecute() {
	s.Run("mutation is persisted", func() {
		posting := newTestPosting(s.T(), Eligibility{})
		s.Require().NoError(s.store.Create(s.ctx, posting))

		closedAt := testTime.Add(time.Hour)
		updated, err := s.store.Execute(s.ctx, posting.ID,
			func(p *Posting) error { return p.CanClose() },
			func(p *Posting) { p.Close(closedAt) },
		)
		s.Require().NoError(err)
		s.Equal(StatusClosed, updated.Status)
		s.Equal(closedAt, updated.UpdatedAt)

		found, err := s.store.Find(s.ctx, posting.ID)
		s.Require().NoError(err)
		s.Equal(StatusClosed, found.Status)
	})

	s.Run("validation failure leaves the posting untouched", func() {
		posting := newTestPosting(s.T(), Eligibility{})
		s.Require().NoError(s.store.Create(s.ctx, posting))

		_, err := s.store.Execute(s.ctx, posting.ID,
			func(p *Posting) error { return sentinel.ErrAlreadyExists },
			func(p *Posting) { p.Close(testTime) },
		)
		s.ErrorIs(err, sentinel.ErrAlreadyExists)

		found, err := s.store.Find(s.ctx, posting.ID)
		s.Require().NoError(err)
		s.Equal(StatusOpen, found.Status)
	})

	s.Run("unknown posting returns not found", func() {
		_, err := s.store.Execute(s.ctx, id.JobID(uuid.New()),
			func(p *Posting) error { return nil },
			func(p *Posting) {},
		)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostingStoreSuite) TestList() {
	s.Run("empty store lists nothing", func() {
		postings, err := s.store.List(s.ctx)
		s.Require().NoError(err)
		s.Empty(postings)
	})

	s.Run("postings come back oldest first", func() {
		older := newTestPosting(s.T(), Eligibility{})
		older.CreatedAt = testTime.Add(-time.Hour)
		newer := newTestPosting(s.T(), Eligibility{})
		s.Require().NoError(s.store.Create(s.ctx, newer))
		s.Require().NoError(s.store.Create(s.ctx, older))

		postings, err := s.store.List(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(postings, 2)
		s.Equal(older.ID, postings[0].ID)
		s.Equal(newer.ID, postings[1].ID)
	})
}
