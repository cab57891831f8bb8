package profile

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"placement/internal/audit"
	"placement/internal/profile/metrics"
	id "placement/pkg/domain"
	dErrors "placement/pkg/domain-errors"
	"placement/pkg/platform/sentinel"
	"placement/pkg/requestcontext"
)

// AuditPublisher records admin verification actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the verification engine plus the student-side record mutations
// it guards. Authorization is enforced here, against the caller identity in
// the request context, never against ambient state.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   AuditPublisher
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

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireAdmin(ctx context.Context) error {
	if requestcontext.Role(ctx) != id.RoleAdmin {
		return dErrors.New(dErrors.CodeForbidden, "administrator role required")
	}
	return nil
}

func requireOwner(ctx context.Context, studentID id.StudentID) error {
	if requestcontext.Role(ctx) != id.RoleStudent || requestcontext.UserID(ctx) != id.UserID(studentID) {
		return dErrors.New(dErrors.CodeForbidden, "only the owning student may do this")
	}
	return nil
}

func requireOwnerOrAdmin(ctx context.Context, studentID id.StudentID) error {
	if requestcontext.Role(ctx) == id.RoleAdmin {
		return nil
	}
	return requireOwner(ctx, studentID)
}

// ---------------------------------------------------------------------------
// Student-side mutations
// ---------------------------------------------------------------------------

// UpsertBasicProfile overwrites the given basic fields, creating the profile
// on first use. Edited fields re-enter pending.
func (s *Service) UpsertBasicProfile(ctx context.Context, studentID id.StudentID, values map[string]string) (*BasicProfile, error) {
	if err := requireOwner(ctx, studentID); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	updated, err := s.store.ExecuteProfile(ctx, studentID,
		func(p *BasicProfile) error { return p.CanEdit(values) },
		func(p *BasicProfile) { p.ApplyEdit(values, now) },
	)
	if errors.Is(err, sentinel.ErrNotFound) {
		profile := NewBasicProfile(studentID, now)
		if err := profile.CanEdit(values); err != nil {
			return nil, err
		}
		profile.ApplyEdit(values, now)
		if err := s.store.SaveProfile(ctx, profile); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
		}
		return profile, nil
	}
	if err != nil {
		return nil, wrapProfileErr(err)
	}
	return updated, nil
}

// AddRecord creates one aggregate record with every field pending.
func (s *Service) AddRecord(ctx context.Context, studentID id.StudentID, kind RecordKind, values map[string]string) (*Record, error) {
	if err := requireOwner(ctx, studentID); err != nil {
		return nil, err
	}
	record, err := NewRecord(id.RecordID(uuid.New()), studentID, kind, values, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateRecord(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create record")
	}
	return record, nil
}

// EditRecord overwrites the given fields of one record. Edited fields lose
// their verified status; the last confirmed snapshot stays for provenance.
func (s *Service) EditRecord(ctx context.Context, studentID id.StudentID, kind RecordKind, recordID id.RecordID, values map[string]string) (*Record, error) {
	if err := requireOwner(ctx, studentID); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	record, err := s.store.ExecuteRecord(ctx, studentID, recordID,
		func(r *Record) error {
			if r.Kind != kind {
				return sentinel.ErrNotFound
			}
			return r.CanEdit(values)
		},
		func(r *Record) { r.ApplyEdit(values, now) },
	)
	if err != nil {
		return nil, wrapRecordErr(err)
	}
	return record, nil
}

// DeleteRecord removes one record. Verification state goes with it; the
// student-level aggregate is simply computed over the remaining records.
func (s *Service) DeleteRecord(ctx context.Context, studentID id.StudentID, kind RecordKind, recordID id.RecordID) error {
	if err := requireOwner(ctx, studentID); err != nil {
		return err
	}
	record, err := s.store.FindRecord(ctx, studentID, recordID)
	if err != nil {
		return wrapRecordErr(err)
	}
	if record.Kind != kind {
		return dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	if err := s.store.DeleteRecord(ctx, studentID, recordID); err != nil {
		return wrapRecordErr(err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Verification engine (admin side)
// ---------------------------------------------------------------------------

// SetFieldStatus verifies or rejects one field. For aggregate fields the
// caller passes the value it read (seenValue); if the student edited the
// field in between, the decision fails with a conflict instead of blessing a
// value the admin never saw.
func (s *Service) SetFieldStatus(ctx context.Context, studentID id.StudentID, path FieldPath, status FieldStatus, seenValue *string, remark *string) (*VerificationBundle, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var err error
	if path.IsBasic() {
		_, err = s.store.ExecuteProfile(ctx, studentID,
			func(p *BasicProfile) error { return p.CanSetFieldStatus(path.Field) },
			func(p *BasicProfile) { p.ApplySetFieldStatus(path.Field, status, now) },
		)
		err = wrapProfileErr(err)
	} else {
		_, err = s.store.ExecuteRecord(ctx, studentID, path.RecordID,
			func(r *Record) error { return r.CanSetFieldStatus(path.Field, status, seenValue) },
			func(r *Record) {
				r.ApplySetFieldStatus(path.Field, status, now)
				if remark != nil {
					r.SetRemark(remark, now)
				}
			},
		)
		err = wrapRecordErr(err)
	}
	if err != nil {
		s.metrics.IncrementFieldDecision(decisionOutcome(err))
		return nil, err
	}

	s.metrics.IncrementFieldDecision(string(status))
	s.emitFieldDecision(ctx, studentID, path, status)

	return s.Bundle(ctx, studentID)
}

// ItemFailure is one failed sub-operation inside a batch.
type ItemFailure struct {
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

// VerifyAllSummary reports a verify-all batch: how many fields were
// confirmed and which sub-operations failed. The batch itself only errors
// when the student does not exist.
type VerifyAllSummary struct {
	StudentID      id.StudentID  `json:"student_id"`
	FieldsVerified int           `json:"fields_verified"`
	Failures       []ItemFailure `json:"failures"`
}

// VerifyAll confirms every basic field and every field of every record the
// student owns. Idempotent: re-running on a fully verified student changes
// nothing. Per-record failures (a record deleted mid-batch) are reported in
// the summary, not raised; the caller decides whether that is fatal.
func (s *Service) VerifyAll(ctx context.Context, studentID id.StudentID) (*VerifyAllSummary, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	summary := &VerifyAllSummary{StudentID: studentID, Failures: []ItemFailure{}}

	_, err := s.store.ExecuteProfile(ctx, studentID, nil,
		func(p *BasicProfile) { p.ApplyVerifyAll(now) },
	)
	if err != nil {
		// No profile means no such student: an outer-scope failure.
		return nil, wrapProfileErr(err)
	}
	summary.FieldsVerified += len(BasicFields)

	records, err := s.store.ListRecords(ctx, studentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	for _, record := range records {
		updated, err := s.store.ExecuteRecord(ctx, studentID, record.ID, nil,
			func(r *Record) { r.ApplyVerifyAll(now) },
		)
		if err != nil {
			summary.Failures = append(summary.Failures, ItemFailure{
				Ref:    string(record.Kind) + "." + record.ID.String(),
				Reason: wrapRecordErr(err).Error(),
			})
			continue
		}
		summary.FieldsVerified += len(updated.Details)
	}

	s.metrics.IncrementVerifyAll(len(summary.Failures))
	s.emitVerifyAll(ctx, studentID, summary)

	return summary, nil
}

// IsFullyVerified reports whether every basic field is verified and every
// record's AND-aggregate holds. A student with no records of some kind is
// vacuously verified for that kind; records are not required to exist.
func (s *Service) IsFullyVerified(ctx context.Context, studentID id.StudentID) (bool, error) {
	profile, err := s.store.FindProfile(ctx, studentID)
	if err != nil {
		return false, wrapProfileErr(err)
	}
	if !profile.FullyVerified() {
		return false, nil
	}
	records, err := s.store.ListRecords(ctx, studentID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	for _, record := range records {
		if !record.IsVerified {
			return false, nil
		}
	}
	return true, nil
}

// VerificationBundle is the full provenance view of one student.
type VerificationBundle struct {
	Profile       *BasicProfile `json:"profile"`
	Records       []*Record     `json:"records"`
	FullyVerified bool          `json:"fully_verified"`
}

// Bundle loads the complete verification state for one student.
func (s *Service) Bundle(ctx context.Context, studentID id.StudentID) (*VerificationBundle, error) {
	if err := requireOwnerOrAdmin(ctx, studentID); err != nil {
		return nil, err
	}
	profile, err := s.store.FindProfile(ctx, studentID)
	if err != nil {
		return nil, wrapProfileErr(err)
	}
	records, err := s.store.ListRecords(ctx, studentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	fully := profile.FullyVerified()
	for _, record := range records {
		if !record.IsVerified {
			fully = false
			break
		}
	}
	return &VerificationBundle{Profile: profile, Records: records, FullyVerified: fully}, nil
}

// Academic is the slice of a student's profile the eligibility matcher
// consumes. Branch and demographic data come from the basic profile; program
// and CGPA from the most recent education record.
type Academic struct {
	Branch         string
	Program        string
	Gender         string
	CGPA           string
	GraduationYear string
}

// Academic assembles the matching view. Missing education simply yields empty
// program/CGPA; the matcher reports the consequences rule by rule.
func (s *Service) Academic(ctx context.Context, studentID id.StudentID) (Academic, error) {
	profile, err := s.store.FindProfile(ctx, studentID)
	if err != nil {
		return Academic{}, wrapProfileErr(err)
	}
	academic := Academic{
		Branch:         profile.Values["major"],
		Gender:         profile.Values["gender"],
		GraduationYear: profile.Values["expected_graduation_year"],
	}
	records, err := s.store.ListRecords(ctx, studentID)
	if err != nil {
		return Academic{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	for _, record := range records {
		if record.Kind != RecordKindEducation {
			continue
		}
		academic.Program = record.Details["degree"].CurrentValue
		academic.CGPA = record.Details["gpa"].CurrentValue
		// ListRecords orders by creation; the last education record wins.
	}
	return academic, nil
}

// ---------------------------------------------------------------------------

func wrapProfileErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "student profile not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "profile store failure")
}

func wrapRecordErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "record store failure")
}

func decisionOutcome(err error) string {
	if dErrors.HasCode(err, dErrors.CodeConflict) {
		return "conflict"
	}
	return "error"
}

func (s *Service) emitFieldDecision(ctx context.Context, studentID id.StudentID, path FieldPath, status FieldStatus) {
	if s.audit == nil {
		return
	}
	eventType := audit.EventFieldVerified
	if status == FieldStatusRejected {
		eventType = audit.EventFieldRejected
	}
	if err := s.audit.Emit(ctx, audit.Event{
		Type:      eventType,
		StudentID: studentID,
		Detail:    map[string]string{"field": path.String()},
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err)
	}
}

func (s *Service) emitVerifyAll(ctx context.Context, studentID id.StudentID, summary *VerifyAllSummary) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, audit.Event{
		Type:      audit.EventStudentVerifiedAll,
		StudentID: studentID,
		Detail: map[string]string{
			"fields_verified": strconv.Itoa(summary.FieldsVerified),
			"failures":        strconv.Itoa(len(summary.Failures)),
		},
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err)
	}
}
