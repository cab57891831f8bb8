// Package profile holds the student record aggregates and the field-level
// verification model. A field's provenance is tracked next to its value: what
// the student currently claims, what an administrator last confirmed, and
// whether the two still agree.
package profile

import (
	"slices"
	"strings"
	"time"

	id "placement/pkg/domain"
	dErrors "placement/pkg/domain-errors"
)

// FieldStatus is the verification state of a single field.
type FieldStatus string

const (
	FieldStatusPending  FieldStatus = "pending"
	FieldStatusVerified FieldStatus = "verified"
	FieldStatusRejected FieldStatus = "rejected"
)

// ParseFieldStatus accepts only the statuses an administrator may set.
func ParseFieldStatus(raw string) (FieldStatus, error) {
	switch FieldStatus(raw) {
	case FieldStatusVerified, FieldStatusRejected:
		return FieldStatus(raw), nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, "status must be verified or rejected")
	}
}

// VerifiableField pairs a student-edited value with its last
// administrator-confirmed snapshot.
//
// Invariants:
//   - Status is verified only while CurrentValue == *LastVerifiedValue.
//     Any edit of CurrentValue resets Status to pending; verification can
//     never silently survive a content change.
//   - LastVerifiedValue is written only by a verify operation.
type VerifiableField struct {
	CurrentValue      string      `json:"current_value"`
	LastVerifiedValue *string     `json:"last_verified_value,omitempty"`
	Status            FieldStatus `json:"status"`
}

// IsVerified reports whether the field's current value is the one the
// administrator confirmed.
func (f VerifiableField) IsVerified() bool {
	return f.Status == FieldStatusVerified &&
		f.LastVerifiedValue != nil &&
		*f.LastVerifiedValue == f.CurrentValue
}

// RecordKind names one aggregate record type. Each kind has a fixed field
// schema; details maps are never free-form.
type RecordKind string

const (
	RecordKindEducation  RecordKind = "education"
	RecordKindExperience RecordKind = "experience"
	RecordKindPosition   RecordKind = "position"
	RecordKindProject    RecordKind = "project"
)

var recordSchemas = map[RecordKind][]string{
	RecordKindEducation:  {"degree", "institution", "year", "gpa", "major", "minor", "relevant_courses", "honors"},
	RecordKindExperience: {"company", "title", "start", "end", "description"},
	RecordKindPosition:   {"organization", "title", "start", "end", "description"},
	RecordKindProject:    {"name", "role", "start", "end", "description", "url"},
}

// RecordKinds lists every aggregate kind, in bundle order.
var RecordKinds = []RecordKind{RecordKindEducation, RecordKindExperience, RecordKindPosition, RecordKindProject}

func ParseRecordKind(raw string) (RecordKind, error) {
	if _, ok := recordSchemas[RecordKind(raw)]; !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "unknown record kind")
	}
	return RecordKind(raw), nil
}

// Schema returns the fixed field names for this kind.
func (k RecordKind) Schema() []string {
	return recordSchemas[k]
}

func (k RecordKind) hasField(name string) bool {
	return slices.Contains(recordSchemas[k], name)
}

// Record is one aggregate entry (one degree, one job, one project) owned by a
// student. IsVerified is the AND over every field's verification state.
type Record struct {
	ID           id.RecordID                `json:"id"`
	StudentID    id.StudentID               `json:"student_id"`
	Kind         RecordKind                 `json:"kind"`
	Details      map[string]VerifiableField `json:"details"`
	IsVerified   bool                       `json:"is_verified"`
	Remark       *string                    `json:"remark,omitempty"`
	LastVerified *time.Time                 `json:"last_verified,omitempty"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

// NewRecord builds a record with every schema field present and pending.
// Values for unknown fields are rejected, not dropped.
func NewRecord(recordID id.RecordID, studentID id.StudentID, kind RecordKind, values map[string]string, now time.Time) (*Record, error) {
	schema, ok := recordSchemas[kind]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "unknown record kind")
	}
	if err := checkKnownFields(kind, values); err != nil {
		return nil, err
	}
	details := make(map[string]VerifiableField, len(schema))
	for _, name := range schema {
		details[name] = VerifiableField{
			CurrentValue: values[name],
			Status:       FieldStatusPending,
		}
	}
	return &Record{
		ID:        recordID,
		StudentID: studentID,
		Kind:      kind,
		Details:   details,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func checkKnownFields(kind RecordKind, values map[string]string) error {
	for name := range values {
		if !kind.hasField(name) {
			return dErrors.New(dErrors.CodeValidation, "unknown field "+name+" for "+string(kind)+" record")
		}
	}
	return nil
}

// CanEdit validates a student edit without applying it.
func (r *Record) CanEdit(values map[string]string) error {
	return checkKnownFields(r.Kind, values)
}

// ApplyEdit overwrites the given fields. A changed value re-enters pending:
// the old verification applied to a value that no longer exists. Call CanEdit
// first; pairs with the store's Execute callback.
func (r *Record) ApplyEdit(values map[string]string, now time.Time) {
	for name, value := range values {
		field := r.Details[name]
		if field.CurrentValue == value {
			continue
		}
		field.CurrentValue = value
		field.Status = FieldStatusPending
		r.Details[name] = field
	}
	r.UpdatedAt = now
	r.recomputeVerified()
}

// CanSetFieldStatus validates a verify/reject against this record. seenValue
// is the compare-and-set guard: when non-nil, it must match the field's
// current value or the caller is acting on a stale read.
func (r *Record) CanSetFieldStatus(name string, status FieldStatus, seenValue *string) error {
	field, ok := r.Details[name]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "unknown field "+name)
	}
	if status == FieldStatusVerified && seenValue != nil && *seenValue != field.CurrentValue {
		return dErrors.New(dErrors.CodeConflict, "field value changed since it was read")
	}
	return nil
}

// ApplySetFieldStatus records the verification decision. Verifying snapshots
// the current value as the last confirmed one; rejecting leaves the value and
// snapshot untouched. Re-verifying a field already verified at its current
// value changes nothing, so repeated verifications keep their timestamps.
// Call CanSetFieldStatus first.
func (r *Record) ApplySetFieldStatus(name string, status FieldStatus, now time.Time) {
	field := r.Details[name]
	if status == FieldStatusVerified && field.IsVerified() {
		return
	}
	field.Status = status
	if status == FieldStatusVerified {
		snapshot := field.CurrentValue
		field.LastVerifiedValue = &snapshot
		r.LastVerified = &now
	}
	r.Details[name] = field
	r.UpdatedAt = now
	r.recomputeVerified()
}

// ApplyVerifyAll verifies every field at its current value. Idempotent.
func (r *Record) ApplyVerifyAll(now time.Time) {
	for name := range r.Details {
		r.ApplySetFieldStatus(name, FieldStatusVerified, now)
	}
}

// SetRemark attaches or clears the admin's free-text note.
func (r *Record) SetRemark(remark *string, now time.Time) {
	r.Remark = remark
	r.UpdatedAt = now
}

func (r *Record) recomputeVerified() {
	for _, field := range r.Details {
		if !field.IsVerified() {
			r.IsVerified = false
			return
		}
	}
	r.IsVerified = true
}

// BasicFields is the fixed schema of the scalar profile. These carry a plain
// three-state status, no value snapshot.
var BasicFields = []string{
	"name", "email", "phone", "dob", "gender", "address", "major",
	"student_id", "enrollment_year", "expected_graduation_year", "passport_image",
}

// IsBasicField reports whether name is part of the basic profile schema.
func IsBasicField(name string) bool {
	return slices.Contains(BasicFields, name)
}

// BasicProfile is a student's scalar profile plus per-field verification
// status.
type BasicProfile struct {
	StudentID id.StudentID           `json:"student_id"`
	Values    map[string]string      `json:"values"`
	Status    map[string]FieldStatus `json:"status"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// NewBasicProfile starts every field empty and pending.
func NewBasicProfile(studentID id.StudentID, now time.Time) *BasicProfile {
	values := make(map[string]string, len(BasicFields))
	status := make(map[string]FieldStatus, len(BasicFields))
	for _, name := range BasicFields {
		values[name] = ""
		status[name] = FieldStatusPending
	}
	return &BasicProfile{
		StudentID: studentID,
		Values:    values,
		Status:    status,
		UpdatedAt: now,
	}
}

// CanEdit validates a student edit without applying it.
func (p *BasicProfile) CanEdit(values map[string]string) error {
	for name := range values {
		if !IsBasicField(name) {
			return dErrors.New(dErrors.CodeValidation, "unknown basic profile field "+name)
		}
	}
	return nil
}

// ApplyEdit overwrites the given fields; a changed value re-enters pending.
func (p *BasicProfile) ApplyEdit(values map[string]string, now time.Time) {
	for name, value := range values {
		if p.Values[name] == value {
			continue
		}
		p.Values[name] = value
		p.Status[name] = FieldStatusPending
	}
	p.UpdatedAt = now
}

// CanSetFieldStatus validates a verify/reject of one basic field.
func (p *BasicProfile) CanSetFieldStatus(name string) error {
	if !IsBasicField(name) {
		return dErrors.New(dErrors.CodeNotFound, "unknown field "+name)
	}
	return nil
}

// ApplySetFieldStatus records the verification decision for one basic field.
// A decision that matches the field's current status changes nothing.
func (p *BasicProfile) ApplySetFieldStatus(name string, status FieldStatus, now time.Time) {
	if p.Status[name] == status {
		return
	}
	p.Status[name] = status
	p.UpdatedAt = now
}

// ApplyVerifyAll verifies every basic field. Idempotent.
func (p *BasicProfile) ApplyVerifyAll(now time.Time) {
	for _, name := range BasicFields {
		p.ApplySetFieldStatus(name, FieldStatusVerified, now)
	}
}

// FullyVerified reports whether every basic field is verified.
func (p *BasicProfile) FullyVerified() bool {
	for _, name := range BasicFields {
		if p.Status[name] != FieldStatusVerified {
			return false
		}
	}
	return true
}

// FieldPath addresses one verifiable field: either a basic profile field
// ("phone") or a field inside an aggregate record
// ("education.<record-id>.gpa").
type FieldPath struct {
	Kind     RecordKind
	RecordID id.RecordID
	Field    string
}

// IsBasic reports whether the path addresses the basic profile.
func (p FieldPath) IsBasic() bool { return p.Kind == "" }

func (p FieldPath) String() string {
	if p.IsBasic() {
		return p.Field
	}
	return string(p.Kind) + "." + p.RecordID.String() + "." + p.Field
}

// ParseFieldPath validates a field path against the fixed schemas.
func ParseFieldPath(raw string) (FieldPath, error) {
	segments := strings.Split(raw, ".")
	switch len(segments) {
	case 1:
		if !IsBasicField(segments[0]) {
			return FieldPath{}, dErrors.New(dErrors.CodeNotFound, "unknown field "+segments[0])
		}
		return FieldPath{Field: segments[0]}, nil
	case 3:
		kind, err := ParseRecordKind(segments[0])
		if err != nil {
			return FieldPath{}, err
		}
		recordID, err := id.ParseRecordID(segments[1])
		if err != nil {
			return FieldPath{}, dErrors.New(dErrors.CodeBadRequest, "invalid record id in field path")
		}
		if !kind.hasField(segments[2]) {
			return FieldPath{}, dErrors.New(dErrors.CodeNotFound, "unknown field "+segments[2]+" for "+segments[0]+" record")
		}
		return FieldPath{Kind: kind, RecordID: recordID, Field: segments[2]}, nil
	default:
		return FieldPath{}, dErrors.New(dErrors.CodeBadRequest, "field path must be <field> or <kind>.<record-id>.<field>")
	}
}
