package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"placement/internal/application/metrics"
	"placement/internal/audit"
	"placement/internal/posting"
	id "placement/pkg/domain"
	dErrors "placement/pkg/domain-errors"
	"placement/pkg/platform/sentinel"
	"placement/pkg/requestcontext"
)

// PostingReader loads postings for deadline and hiring-flow checks.
// Satisfied by the posting service.
type PostingReader interface {
	GetPosting(ctx context.Context, jobID id.JobID) (*posting.Posting, error)
}

// EligibilityChecker runs the posting's rule set against a student.
// Satisfied by the posting service.
type EligibilityChecker interface {
	CheckEligibility(ctx context.Context, studentID id.StudentID, jobID id.JobID) (*posting.Report, error)
}

// AuditPublisher records application lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the application lifecycle: creation with its preconditions
// and the admin-driven status transitions.
type Service struct {
	store       Store
	postings    PostingReader
	eligibility EligibilityChecker
	logger      *slog.Logger
	metrics     *metrics.Metrics
	audit       AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func NewService(store Store, postings PostingReader, eligibility EligibilityChecker, opts ...Option) *Service {
	s := &Service{
		store:       store,
		postings:    postings,
		eligibility: eligibility,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply creates an application for the calling student. Preconditions, in
// order: the posting exists and is open, the student passes the posting's
// rule set, and no application for the pair exists yet.
func (s *Service) Apply(ctx context.Context, studentID id.StudentID, jobID id.JobID, resumeID id.ResumeID) (*Application, error) {
	if requestcontext.Role(ctx) != id.RoleStudent || requestcontext.UserID(ctx) != id.UserID(studentID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the applying student may do this")
	}
	now := requestcontext.Now(ctx)

	var (
		job    *posting.Posting
		report *posting.Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		job, err = s.postings.GetPosting(gctx, jobID)
		return err
	})
	g.Go(func() error {
		var err error
		report, err = s.eligibility.CheckEligibility(gctx, studentID, jobID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if job.Status == posting.StatusClosed {
		s.metrics.IncrementRefusal("posting_closed")
		return nil, dErrors.New(dErrors.CodeDeadlinePassed, "posting is closed")
	}
	if !job.IsOpen(now) {
		s.metrics.IncrementRefusal("deadline_passed")
		return nil, dErrors.New(dErrors.CodeDeadlinePassed, "posting deadline has passed")
	}
	if !report.Eligible {
		s.metrics.IncrementRefusal("not_eligible")
		return nil, dErrors.WithRules(dErrors.CodeNotEligible,
			"student does not meet the posting's criteria", report.FailedRules)
	}

	created := NewApplication(id.ApplicationID(uuid.New()), studentID, jobID, resumeID, job.FirstStage(), now)
	if err := s.store.Create(ctx, created); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			s.metrics.IncrementRefusal("duplicate")
			return nil, dErrors.New(dErrors.CodeDuplicateApplication, "student has already applied to this posting")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
	}

	s.metrics.IncrementCreated()
	s.emit(ctx, audit.Event{
		Type:      audit.EventApplicationCreated,
		StudentID: studentID,
		Detail: map[string]string{
			"application_id": created.ID.String(),
			"job_id":         jobID.String(),
			"stage":          string(created.Stage),
		},
	})
	s.logger.InfoContext(ctx, "application created",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", created.ID,
		"student_id", studentID,
		"job_id", jobID,
	)
	return created, nil
}

// Get loads one application. Students see their own; admins see all.
func (s *Service) Get(ctx context.Context, applicationID id.ApplicationID) (*Application, error) {
	application, err := s.store.Find(ctx, applicationID)
	if err != nil {
		return nil, wrapApplicationErr(err)
	}
	if err := s.requireViewer(ctx, application.StudentID); err != nil {
		return nil, err
	}
	return application, nil
}

// ListByStudent returns a student's applications, oldest first.
func (s *Service) ListByStudent(ctx context.Context, studentID id.StudentID) ([]*Application, error) {
	if err := s.requireViewer(ctx, studentID); err != nil {
		return nil, err
	}
	applications, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return applications, nil
}

// ListByJob returns a posting's applicant cohort. Admin only.
func (s *Service) ListByJob(ctx context.Context, jobID id.JobID) ([]*Application, error) {
	if requestcontext.Role(ctx) != id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "administrator role required")
	}
	applications, err := s.store.ListByJob(ctx, jobID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return applications, nil
}

// UpdateStatus transitions one application. Admin only. A non-empty stage
// must belong to the posting's hiring flow, except on a terminal update
// where the status literal itself is accepted as the closing stage marker.
func (s *Service) UpdateStatus(ctx context.Context, applicationID id.ApplicationID, to Status, stage posting.HiringStep) (*Application, error) {
	if requestcontext.Role(ctx) != id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "administrator role required")
	}
	now := requestcontext.Now(ctx)
	actorID := requestcontext.UserID(ctx)

	updated, err := s.store.Execute(ctx, applicationID,
		func(a *Application) error {
			if err := a.CanTransition(to, stage); err != nil {
				return err
			}
			if stage == "" {
				return nil
			}
			// Terminal updates may carry the status itself as the stage
			// marker instead of a hiring-flow stage.
			if to.IsTerminal() && string(stage) == string(to) {
				return nil
			}
			job, err := s.postings.GetPosting(ctx, a.JobID)
			if err != nil {
				return err
			}
			if !job.HasStage(stage) {
				return dErrors.New(dErrors.CodeValidation,
					"stage "+string(stage)+" is not part of the hiring flow")
			}
			return nil
		},
		func(a *Application) { a.ApplyTransition(to, stage, actorID, now) },
	)
	if err != nil {
		return nil, wrapApplicationErr(err)
	}

	s.metrics.IncrementTransition(string(to))
	s.emit(ctx, audit.Event{
		Type:      audit.EventStatusTransition,
		StudentID: updated.StudentID,
		Detail: map[string]string{
			"application_id": updated.ID.String(),
			"job_id":         updated.JobID.String(),
			"to":             string(to),
			"stage":          string(updated.Stage),
		},
	})
	s.logger.InfoContext(ctx, "application status updated",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", applicationID,
		"to", to,
		"stage", updated.Stage,
	)
	return updated, nil
}

// BulkFailure is one application that could not be transitioned.
type BulkFailure struct {
	ID     id.ApplicationID `json:"id"`
	Reason string           `json:"reason"`
}

// BulkResult summarizes a cohort transition. Failures preserve the order of
// the request so callers can correlate outcomes by position.
type BulkResult struct {
	Succeeded int           `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

const bulkConcurrency = 8

// BulkUpdateStatus transitions a cohort of applications to one target
// status. Admin only. Each application succeeds or fails independently; one
// invalid transition never aborts the batch.
func (s *Service) BulkUpdateStatus(ctx context.Context, applicationIDs []id.ApplicationID, to Status, stage posting.HiringStep) (*BulkResult, error) {
	if requestcontext.Role(ctx) != id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "administrator role required")
	}
	if len(applicationIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "application_ids is required")
	}

	type outcome struct {
		err error
	}
	outcomes := make([]outcome, len(applicationIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)
	for i, applicationID := range applicationIDs {
		g.Go(func() error {
			_, err := s.UpdateStatus(gctx, applicationID, to, stage)
			outcomes[i].err = err
			return nil
		})
	}
	// Per-item errors are collected in outcomes; Wait only reports ctx
	// cancellation, which the goroutines never return.
	_ = g.Wait()

	result := &BulkResult{Failed: []BulkFailure{}}
	for i, o := range outcomes {
		if o.err == nil {
			result.Succeeded++
			continue
		}
		result.Failed = append(result.Failed, BulkFailure{
			ID:     applicationIDs[i],
			Reason: failureReason(o.err),
		})
	}
	s.metrics.IncrementBulk(len(result.Failed))
	s.logger.InfoContext(ctx, "bulk status update completed",
		"request_id", requestcontext.RequestID(ctx),
		"to", to,
		"total", len(applicationIDs),
		"succeeded", result.Succeeded,
		"failed", len(result.Failed),
	)
	return result, nil
}

func (s *Service) requireViewer(ctx context.Context, studentID id.StudentID) error {
	if requestcontext.Role(ctx) == id.RoleAdmin {
		return nil
	}
	if requestcontext.Role(ctx) == id.RoleStudent && requestcontext.UserID(ctx) == id.UserID(studentID) {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "only the owning student may do this")
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "type", event.Type, "error", err)
	}
}

func wrapApplicationErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "application store failure")
}

func failureReason(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		reason := string(de.Code)
		if de.Message != "" {
			reason += ": " + de.Message
		}
		return reason
	}
	return strings.TrimSpace(err.Error())
}
