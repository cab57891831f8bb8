package application

import (
	"context"
	"sort"
	"sync"

	id "placement/pkg/domain"
	"placement/pkg/platform/sentinel"
)

type pairKey struct {
	student id.StudentID
	job     id.JobID
}

// InMemoryStore is a thread-safe in-memory Store for tests and local runs.
type InMemoryStore struct {
	mu           sync.RWMutex
	applications map[id.ApplicationID]*Application
	byPair       map[pairKey]id.ApplicationID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		applications: make(map[id.ApplicationID]*Application),
		byPair:       make(map[pairKey]id.ApplicationID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, application *Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{student: application.StudentID, job: application.JobID}
	if _, exists := s.byPair[key]; exists {
		return sentinel.ErrAlreadyExists
	}
	if _, exists := s.applications[application.ID]; exists {
		return sentinel.ErrAlreadyExists
	}
	s.applications[application.ID] = copyApplication(application)
	s.byPair[key] = application.ID
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, applicationID id.ApplicationID) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	application, ok := s.applications[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyApplication(application), nil
}

func (s *InMemoryStore) FindByStudentAndJob(_ context.Context, studentID id.StudentID, jobID id.JobID) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	applicationID, ok := s.byPair[pairKey{student: studentID, job: jobID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyApplication(s.applications[applicationID]), nil
}

func (s *InMemoryStore) ListByStudent(_ context.Context, studentID id.StudentID) ([]*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Application
	for _, application := range s.applications {
		if application.StudentID == studentID {
			out = append(out, copyApplication(application))
		}
	}
	sortApplications(out)
	return out, nil
}

func (s *InMemoryStore) ListByJob(_ context.Context, jobID id.JobID) ([]*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Application
	for _, application := range s.applications {
		if application.JobID == jobID {
			out = append(out, copyApplication(application))
		}
	}
	sortApplications(out)
	return out, nil
}

func (s *InMemoryStore) Execute(_ context.Context, applicationID id.ApplicationID,
	validate func(*Application) error, mutate func(*Application)) (*Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.applications[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := copyApplication(stored)
	if validate != nil {
		if err := validate(working); err != nil {
			return nil, err
		}
	}
	mutate(working)
	s.applications[applicationID] = copyApplication(working)
	return working, nil
}

func sortApplications(applications []*Application) {
	sort.Slice(applications, func(i, j int) bool {
		if !applications[i].AppliedAt.Equal(applications[j].AppliedAt) {
			return applications[i].AppliedAt.Before(applications[j].AppliedAt)
		}
		return applications[i].ID.String() < applications[j].ID.String()
	})
}

func copyApplication(a *Application) *Application {
	clone := *a
	clone.History = append([]StatusChange(nil), a.History...)
	return &clone
}
