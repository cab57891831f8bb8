package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placement/internal/audit"
	id "placement/pkg/domain"
	dErrors "placement/pkg/domain-errors"
	"placement/pkg/testutil"
)

type capturingAudit struct {
	events []audit.Event
}

func (c *capturingAudit) Emit(_ context.Context, event audit.Event) error {
	c.events = append(c.events, event)
	return nil
}

type serviceFixture struct {
	service *Service
	audit   *capturingAudit

	studentID  id.StudentID
	adminID    id.UserID
	studentCtx context.Context
	adminCtx   context.Context
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	sink := &capturingAudit{}
	f := &serviceFixture{
		service:   NewService(NewInMemoryStore(), WithAuditPublisher(sink)),
		audit:     sink,
		studentID: id.StudentID(uuid.New()),
		adminID:   id.UserID(uuid.New()),
	}
	base := testutil.At(context.Background(), testTime)
	f.studentCtx = testutil.AsStudent(base, f.studentID)
	f.adminCtx = testutil.AsAdmin(base, f.adminID)
	return f
}

func (f *serviceFixture) seedProfile(t *testing.T, values map[string]string) {
	t.Helper()
	_, err := f.service.UpsertBasicProfile(f.studentCtx, f.studentID, values)
	require.NoError(t, err)
}

func (f *serviceFixture) seedRecord(t *testing.T, kind RecordKind, values map[string]string) *Record {
	t.Helper()
	record, err := f.service.AddRecord(f.studentCtx, f.studentID, kind, values)
	require.NoError(t, err)
	return record
}

func TestUpsertBasicProfile(t *testing.T) {
	f := newServiceFixture(t)

	t.Run("creates the profile on first write", func(t *testing.T) {
		profile, err := f.service.UpsertBasicProfile(f.studentCtx, f.studentID, map[string]string{"name": "Asha"})
		require.NoError(t, err)
		assert.Equal(t, "Asha", profile.Values["name"])
		assert.Equal(t, FieldStatusPending, profile.Status["name"])
	})

	t.Run("only the owner may edit", func(t *testing.T) {
		otherCtx := testutil.AsStudent(context.Background(), id.StudentID(uuid.New()))
		_, err := f.service.UpsertBasicProfile(otherCtx, f.studentID, map[string]string{"name": "x"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("admins do not edit student data", func(t *testing.T) {
		_, err := f.service.UpsertBasicProfile(f.adminCtx, f.studentID, map[string]string{"name": "x"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func TestSetFieldStatus(t *testing.T) {
	t.Run("verifies a basic field", func(t *testing.T) {
		f := newServiceFixture(t)
		f.seedProfile(t, map[string]string{"phone": "12345"})

		bundle, err := f.service.SetFieldStatus(f.adminCtx, f.studentID,
			FieldPath{Field: "phone"}, FieldStatusVerified, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, FieldStatusVerified, bundle.Profile.Status["phone"])
	})

	t.Run("students may not verify", func(t *testing.T) {
		f := newServiceFixture(t)
		f.seedProfile(t, map[string]string{"phone": "12345"})

		_, err := f.service.SetFieldStatus(f.studentCtx, f.studentID,
			FieldPath{Field: "phone"}, FieldStatusVerified, nil, nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("verifies a record field and stores the remark", func(t *testing.T) {
		f := newServiceFixture(t)
		f.seedProfile(t, map[string]string{"name": "Asha"})
		record := f.seedRecord(t, RecordKindEducation, map[string]string{"gpa": "8.2"})

		seen := "8.2"
		remark := "matches transcript"
		bundle, err := f.service.SetFieldStatus(f.adminCtx, f.studentID,
			FieldPath{Kind: RecordKindEducation, RecordID: record.ID, Field: "gpa"},
			FieldStatusVerified, &seen, &remark)
		require.NoError(t, err)

		require.Len(t, bundle.Records, 1)
		assert.True(t, bundle.Records[0].Details["gpa"].IsVerified())
		require.NotNil(t, bundle.Records[0].Remark)
		assert.Equal(t, remark, *bundle.Records[0].Remark)
	})

	t.Run("stale read conflicts instead of blessing the new value", func(t *testing.T) {
		f := newServiceFixture(t)
		f.seedProfile(t, map[string]string{"name": "Asha"})
		record := f.seedRecord(t, RecordKindEducation, map[string]string{"gpa": "8.2"})

		// Student edits after the admin loaded the record.
		_, err := f.service.EditRecord(f.studentCtx, f.studentID, RecordKindEducation, record.ID,
			map[string]string{"gpa": "9.9"})
		require.NoError(t, err)

		seen := "8.2"
		_, err = f.service.SetFieldStatus(f.adminCtx, f.studentID,
			FieldPath{Kind: RecordKindEducation, RecordID: record.ID, Field: "gpa"},
			FieldStatusVerified, &seen, nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("emits an audit event", func(t *testing.T) {
		f := newServiceFixture(t)
		f.seedProfile(t, map[string]string{"phone": "12345"})

		_, err := f.service.SetFieldStatus(f.adminCtx, f.studentID,
			FieldPath{Field: "phone"}, FieldStatusRejected, nil, nil)
		require.NoError(t, err)

		require.NotEmpty(t, f.audit.events)
		last := f.audit.events[len(f.audit.events)-1]
		assert.Equal(t, audit.EventFieldRejected, last.Type)
		assert.Equal(t, f.studentID, last.StudentID)
	})

	t.Run("unknown student is not found", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.service.SetFieldStatus(f.adminCtx, id.StudentID(uuid.New()),
			FieldPath{Field: "phone"}, FieldStatusVerified, nil, nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestVerifyAll(t *testing.T) {
	t.Run("confirms the profile and every record", func(t *testing.T) {
		f := newServiceFixture(t)
		f.seedProfile(t, map[string]string{"name": "Asha"})
		f.seedRecord(t, RecordKindEducation, map[string]string{"gpa": "8.2"})
		f.seedRecord(t, RecordKindProject, map[string]string{"name": "compiler"})

		summary, err := f.service.VerifyAll(f.adminCtx, f.studentID)
		require.NoError(t, err)
		expected := len(BasicFields) + len(RecordKindEducation.Schema()) + len(RecordKindProject.Schema())
		assert.Equal(t, expected, summary.FieldsVerified)
		assert.Empty(t, summary.Failures)

		verified, err := f.service.IsFullyVerified(f.adminCtx, f.studentID)
		require.NoError(t, err)
		assert.True(t, verified)
	})

	t.Run("is idempotent", func(t *testing.T) {
		f := newServiceFixture(t)
		f.seedProfile(t, map[string]string{"name": "Asha"})

		first, err := f.service.VerifyAll(f.adminCtx, f.studentID)
		require.NoError(t, err)
		second, err := f.service.VerifyAll(f.adminCtx, f.studentID)
		require.NoError(t, err)
		assert.Equal(t, first.FieldsVerified, second.FieldsVerified)
	})

	t.Run("a repeat run keeps the original timestamps", func(t *testing.T) {
		f := newServiceFixture(t)
		f.seedProfile(t, map[string]string{"name": "Asha"})
		record := f.seedRecord(t, RecordKindEducation, map[string]string{"gpa": "8.2"})

		_, err := f.service.VerifyAll(f.adminCtx, f.studentID)
		require.NoError(t, err)

		laterCtx := testutil.At(f.adminCtx, testTime.Add(time.Hour))
		_, err = f.service.VerifyAll(laterCtx, f.studentID)
		require.NoError(t, err)

		bundle, err := f.service.Bundle(f.adminCtx, f.studentID)
		require.NoError(t, err)
		assert.Equal(t, testTime, bundle.Profile.UpdatedAt)
		for _, got := range bundle.Records {
			if got.ID != record.ID {
				continue
			}
			require.NotNil(t, got.LastVerified)
			assert.Equal(t, testTime, *got.LastVerified)
			assert.Equal(t, testTime, got.UpdatedAt)
		}
	})

	t.Run("a student with no records is fully verified by the profile alone", func(t *testing.T) {
		f := newServiceFixture(t)
		f.seedProfile(t, map[string]string{"name": "Asha"})

		_, err := f.service.VerifyAll(f.adminCtx, f.studentID)
		require.NoError(t, err)

		verified, err := f.service.IsFullyVerified(f.adminCtx, f.studentID)
		require.NoError(t, err)
		assert.True(t, verified)
	})

	t.Run("missing student fails the whole batch", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.service.VerifyAll(f.adminCtx, id.StudentID(uuid.New()))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("later edits drop the verified state again", func(t *testing.T) {
		f := newServiceFixture(t)
		f.seedProfile(t, map[string]string{"name": "Asha"})
		record := f.seedRecord(t, RecordKindEducation, map[string]string{"gpa": "8.2"})

		_, err := f.service.VerifyAll(f.adminCtx, f.studentID)
		require.NoError(t, err)

		_, err = f.service.EditRecord(f.studentCtx, f.studentID, RecordKindEducation, record.ID,
			map[string]string{"gpa": "9.9"})
		require.NoError(t, err)

		verified, err := f.service.IsFullyVerified(f.adminCtx, f.studentID)
		require.NoError(t, err)
		assert.False(t, verified)
	})
}

func TestAcademicView(t *testing.T) {
	f := newServiceFixture(t)
	f.seedProfile(t, map[string]string{
		"major":                    "CSE",
		"gender":                   "female",
		"expected_graduation_year": "2026",
	})
	f.seedRecord(t, RecordKindEducation, map[string]string{"degree": "B.Tech", "gpa": "8.0"})

	academic, err := f.service.Academic(f.adminCtx, f.studentID)
	require.NoError(t, err)
	assert.Equal(t, "CSE", academic.Branch)
	assert.Equal(t, "B.Tech", academic.Program)
	assert.Equal(t, "female", academic.Gender)
	assert.Equal(t, "8.0", academic.CGPA)
	assert.Equal(t, "2026", academic.GraduationYear)
}

func TestDeleteRecord(t *testing.T) {
	f := newServiceFixture(t)
	f.seedProfile(t, map[string]string{"name": "Asha"})
	record := f.seedRecord(t, RecordKindProject, map[string]string{"name": "compiler"})

	t.Run("kind must match the record", func(t *testing.T) {
		err := f.service.DeleteRecord(f.studentCtx, f.studentID, RecordKindEducation, record.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("owner deletes the record", func(t *testing.T) {
		require.NoError(t, f.service.DeleteRecord(f.studentCtx, f.studentID, RecordKindProject, record.ID))

		bundle, err := f.service.Bundle(f.studentCtx, f.studentID)
		require.NoError(t, err)
		assert.Empty(t, bundle.Records)
	})
}
