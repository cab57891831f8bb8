package posting

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"placement/internal/posting/metrics"
	id "placement/pkg/domain"
	dErrors "placement/pkg/domain-errors"
	"placement/pkg/platform/sentinel"
	"placement/pkg/requestcontext"
)

// ProfileReader supplies the academic view of a student the matcher needs.
// Defined here so the posting module does not depend on the profile module's
// store or service types.
type ProfileReader interface {
	Candidate(ctx context.Context, studentID id.StudentID) (CandidateProfile, error)
}

// Service owns posting management and eligibility checks.
type Service struct {
	store    Store
	profiles ProfileReader
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, profiles ProfileReader, opts ...Option) *Service {
	s := &Service{store: store, profiles: profiles, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePosting publishes a new job opening. Admin only.
func (s *Service) CreatePosting(ctx context.Context, company, title, description string, eligibility Eligibility, flow []HiringStep, deadline time.Time) (*Posting, error) {
	if requestcontext.Role(ctx) != id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "administrator role required")
	}
	now := requestcontext.Now(ctx)

	posting, err := NewPosting(id.JobID(uuid.New()), company, title, description, eligibility, flow, deadline, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, posting); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return nil, dErrors.New(dErrors.CodeConflict, "posting already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create posting")
	}
	return posting, nil
}

// GetPosting loads one posting by job id.
func (s *Service) GetPosting(ctx context.Context, jobID id.JobID) (*Posting, error) {
	posting, err := s.store.Find(ctx, jobID)
	if err != nil {
		return nil, wrapPostingErr(err)
	}
	return posting, nil
}

// ListPostings returns postings oldest first. With openOnly set, closed
// postings and postings past their deadline are filtered out.
func (s *Service) ListPostings(ctx context.Context, openOnly bool) ([]*Posting, error) {
	postings, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list postings")
	}
	if !openOnly {
		return postings, nil
	}
	now := requestcontext.Now(ctx)
	open := make([]*Posting, 0, len(postings))
	for _, p := range postings {
		if p.IsOpen(now) {
			open = append(open, p)
		}
	}
	return open, nil
}

// ClosePosting stops a posting from accepting applications ahead of its
// deadline. Admin only; closing an already closed posting is a conflict.
func (s *Service) ClosePosting(ctx context.Context, jobID id.JobID) (*Posting, error) {
	if requestcontext.Role(ctx) != id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "administrator role required")
	}
	now := requestcontext.Now(ctx)

	posting, err := s.store.Execute(ctx, jobID,
		func(p *Posting) error { return p.CanClose() },
		func(p *Posting) { p.Close(now) },
	)
	if err != nil {
		return nil, wrapPostingErr(err)
	}

	s.logger.InfoContext(ctx, "posting closed",
		"request_id", requestcontext.RequestID(ctx),
		"job_id", jobID,
		"company", posting.Company,
	)
	return posting, nil
}

// Report is one student's eligibility outcome for one posting.
type Report struct {
	StudentID   id.StudentID `json:"student_id"`
	JobID       id.JobID     `json:"job_id"`
	Eligible    bool         `json:"eligible"`
	FailedRules []string     `json:"failed_rules"`
}

// CheckEligibility runs the posting's full rule set against the student's
// academic profile and reports every failed rule.
func (s *Service) CheckEligibility(ctx context.Context, studentID id.StudentID, jobID id.JobID) (*Report, error) {
	start := time.Now()

	posting, err := s.store.Find(ctx, jobID)
	if err != nil {
		s.metrics.IncrementCheck("error")
		return nil, wrapPostingErr(err)
	}
	candidate, err := s.profiles.Candidate(ctx, studentID)
	if err != nil {
		s.metrics.IncrementCheck("error")
		return nil, err
	}

	result, err := CheckEligibility(posting.Eligibility, candidate)
	if err != nil {
		s.metrics.IncrementCheck("error")
		return nil, err
	}

	outcome := "eligible"
	if !result.Eligible {
		outcome = "ineligible"
	}
	s.metrics.IncrementCheck(outcome)
	for _, rule := range result.FailedRules {
		s.metrics.IncrementRuleFailure(rule)
	}
	s.metrics.ObserveCheckDuration(float64(time.Since(start).Microseconds()) / 1000.0)

	s.logger.InfoContext(ctx, "eligibility checked",
		"request_id", requestcontext.RequestID(ctx),
		"student_id", studentID,
		"job_id", jobID,
		"eligible", result.Eligible,
		"failed_rules", result.FailedRules,
	)
	return &Report{
		StudentID:   studentID,
		JobID:       jobID,
		Eligible:    result.Eligible,
		FailedRules: result.FailedRules,
	}, nil
}

func wrapPostingErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "posting not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "posting store failure")
}
