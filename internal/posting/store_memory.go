package posting

import (
	"context"
	"sort"
	"sync"

	id "placement/pkg/domain"
	"placement/pkg/platform/sentinel"
)

// InMemoryStore is a thread-safe in-memory Store for tests and local runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	postings map[id.JobID]*Posting
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{postings: make(map[id.JobID]*Posting)}
}

func (s *InMemoryStore) Create(_ context.Context, posting *Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.postings[posting.ID]; exists {
		return sentinel.ErrAlreadyExists
	}
	s.postings[posting.ID] = copyPosting(posting)
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, jobID id.JobID) (*Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	posting, ok := s.postings[jobID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyPosting(posting), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Posting, 0, len(s.postings))
	for _, posting := range s.postings {
		out = append(out, copyPosting(posting))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryStore) Execute(_ context.Context, jobID id.JobID, validate func(*Posting) error, mutate func(*Posting)) (*Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.postings[jobID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := copyPosting(stored)
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.postings[jobID] = copyPosting(working)
	return working, nil
}

func copyPosting(p *Posting) *Posting {
	clone := *p
	clone.Flow = append([]HiringStep(nil), p.Flow...)
	clone.Eligibility.Programs = append([]string(nil), p.Eligibility.Programs...)
	clone.Eligibility.Branches = append([]string(nil), p.Eligibility.Branches...)
	clone.Eligibility.Batches = append([]int(nil), p.Eligibility.Batches...)
	if p.Eligibility.Criteria != nil {
		criteria := make(map[string]map[string]string, len(p.Eligibility.Criteria))
		for branch, byProgram := range p.Eligibility.Criteria {
			inner := make(map[string]string, len(byProgram))
			for program, cutoff := range byProgram {
				inner[program] = cutoff
			}
			criteria[branch] = inner
		}
		clone.Eligibility.Criteria = criteria
	}
	return &clone
}
