package profile

import (
	"context"
	"sort"
	"sync"

	id "placement/pkg/domain"
	"placement/pkg/platform/sentinel"
)

// InMemoryStore keeps profiles and records in process memory. Used in tests
// and when no database is configured. All reads return deep copies so callers
// can never mutate stored state outside Execute*.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.StudentID]*BasicProfile
	records  map[id.RecordID]*Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles: make(map[id.StudentID]*BasicProfile),
		records:  make(map[id.RecordID]*Record),
	}
}

func (s *InMemoryStore) SaveProfile(_ context.Context, profile *BasicProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.StudentID] = copyProfile(profile)
	return nil
}

func (s *InMemoryStore) FindProfile(_ context.Context, studentID id.StudentID) (*BasicProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[studentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyProfile(profile), nil
}

func (s *InMemoryStore) ExecuteProfile(_ context.Context, studentID id.StudentID,
	validate func(*BasicProfile) error, mutate func(*BasicProfile)) (*BasicProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[studentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(profile); err != nil {
			return nil, err
		}
	}
	mutate(profile)
	return copyProfile(profile), nil
}

func (s *InMemoryStore) CreateRecord(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.records[record.ID] = copyRecord(record)
	return nil
}

func (s *InMemoryStore) FindRecord(_ context.Context, studentID id.StudentID, recordID id.RecordID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[recordID]
	if !ok || record.StudentID != studentID {
		return nil, sentinel.ErrNotFound
	}
	return copyRecord(record), nil
}

func (s *InMemoryStore) ListRecords(_ context.Context, studentID id.StudentID) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, record := range s.records {
		if record.StudentID == studentID {
			out = append(out, copyRecord(record))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) ExecuteRecord(_ context.Context, studentID id.StudentID, recordID id.RecordID,
	validate func(*Record) error, mutate func(*Record)) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[recordID]
	if !ok || record.StudentID != studentID {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(record); err != nil {
			return nil, err
		}
	}
	mutate(record)
	return copyRecord(record), nil
}

func (s *InMemoryStore) DeleteRecord(_ context.Context, studentID id.StudentID, recordID id.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[recordID]
	if !ok || record.StudentID != studentID {
		return sentinel.ErrNotFound
	}
	delete(s.records, recordID)
	return nil
}

func copyProfile(p *BasicProfile) *BasicProfile {
	cp := *p
	cp.Values = make(map[string]string, len(p.Values))
	cp.Status = make(map[string]FieldStatus, len(p.Status))
	for k, v := range p.Values {
		cp.Values[k] = v
	}
	for k, v := range p.Status {
		cp.Status[k] = v
	}
	return &cp
}

func copyRecord(r *Record) *Record {
	cp := *r
	cp.Details = make(map[string]VerifiableField, len(r.Details))
	for k, v := range r.Details {
		if v.LastVerifiedValue != nil {
			snapshot := *v.LastVerifiedValue
			v.LastVerifiedValue = &snapshot
		}
		cp.Details[k] = v
	}
	if r.Remark != nil {
		remark := *r.Remark
		cp.Remark = &remark
	}
	if r.LastVerified != nil {
		ts := *r.LastVerified
		cp.LastVerified = &ts
	}
	return &cp
}
