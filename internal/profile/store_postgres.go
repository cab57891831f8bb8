package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	id "placement/pkg/domain"
	"placement/pkg/platform/sentinel"
)

// PostgresStore persists profiles and records in PostgreSQL. Details and
// status maps are stored as JSONB; Execute* take a row lock (FOR UPDATE) so
// validate and mutate see the same row version.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveProfile(ctx context.Context, profile *BasicProfile) error {
	values, status, err := marshalProfileMaps(profile)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO basic_profiles (student_id, field_values, field_status, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (student_id)
		DO UPDATE SET field_values = $2, field_status = $3, updated_at = $4`,
		profile.StudentID.String(), values, status, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindProfile(ctx context.Context, studentID id.StudentID) (*BasicProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT student_id, field_values, field_status, updated_at
		FROM basic_profiles WHERE student_id = $1`,
		studentID.String(),
	)
	return scanProfile(row)
}

func (s *PostgresStore) ExecuteProfile(ctx context.Context, studentID id.StudentID,
	validate func(*BasicProfile) error, mutate func(*BasicProfile)) (*BasicProfile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT student_id, field_values, field_status, updated_at
		FROM basic_profiles WHERE student_id = $1 FOR UPDATE`,
		studentID.String(),
	)
	profile, err := scanProfile(row)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(profile); err != nil {
			return nil, err
		}
	}
	mutate(profile)

	values, status, err := marshalProfileMaps(profile)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE basic_profiles SET field_values = $2, field_status = $3, updated_at = $4
		WHERE student_id = $1`,
		profile.StudentID.String(), values, status, profile.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit profile update: %w", err)
	}
	return profile, nil
}

func (s *PostgresStore) CreateRecord(ctx context.Context, record *Record) error {
	details, err := json.Marshal(record.Details)
	if err != nil {
		return fmt.Errorf("marshal record details: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, student_id, kind, details, is_verified, remark, last_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID.String(), record.StudentID.String(), string(record.Kind), details,
		record.IsVerified, record.Remark, record.LastVerified, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindRecord(ctx context.Context, studentID id.StudentID, recordID id.RecordID) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, student_id, kind, details, is_verified, remark, last_verified, created_at, updated_at
		FROM records WHERE id = $1 AND student_id = $2`,
		recordID.String(), studentID.String(),
	)
	return scanRecord(row)
}

func (s *PostgresStore) ListRecords(ctx context.Context, studentID id.StudentID) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_id, kind, details, is_verified, remark, last_verified, created_at, updated_at
		FROM records WHERE student_id = $1 ORDER BY kind, created_at`,
		studentID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ExecuteRecord(ctx context.Context, studentID id.StudentID, recordID id.RecordID,
	validate func(*Record) error, mutate func(*Record)) (*Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT id, student_id, kind, details, is_verified, remark, last_verified, created_at, updated_at
		FROM records WHERE id = $1 AND student_id = $2 FOR UPDATE`,
		recordID.String(), studentID.String(),
	)
	record, err := scanRecord(row)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(record); err != nil {
			return nil, err
		}
	}
	mutate(record)

	details, err := json.Marshal(record.Details)
	if err != nil {
		return nil, fmt.Errorf("marshal record details: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE records SET details = $2, is_verified = $3, remark = $4, last_verified = $5, updated_at = $6
		WHERE id = $1`,
		record.ID.String(), details, record.IsVerified, record.Remark, record.LastVerified, record.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit record update: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) DeleteRecord(ctx context.Context, studentID id.StudentID, recordID id.RecordID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM records WHERE id = $1 AND student_id = $2`,
		recordID.String(), studentID.String(),
	)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*BasicProfile, error) {
	var (
		profile    BasicProfile
		rawStudent string
		values     []byte
		status     []byte
	)
	err := row.Scan(&rawStudent, &values, &status, &profile.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	studentID, err := id.ParseStudentID(rawStudent)
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	profile.StudentID = studentID
	if err := json.Unmarshal(values, &profile.Values); err != nil {
		return nil, fmt.Errorf("unmarshal profile values: %w", err)
	}
	if err := json.Unmarshal(status, &profile.Status); err != nil {
		return nil, fmt.Errorf("unmarshal profile status: %w", err)
	}
	return &profile, nil
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record     Record
		rawID      string
		rawStudent string
		rawKind    string
		details    []byte
	)
	err := row.Scan(&rawID, &rawStudent, &rawKind, &details,
		&record.IsVerified, &record.Remark, &record.LastVerified, &record.CreatedAt, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	recordID, err := id.ParseRecordID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	studentID, err := id.ParseStudentID(rawStudent)
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	record.ID = recordID
	record.StudentID = studentID
	record.Kind = RecordKind(rawKind)
	if err := json.Unmarshal(details, &record.Details); err != nil {
		return nil, fmt.Errorf("unmarshal record details: %w", err)
	}
	return &record, nil
}

func marshalProfileMaps(profile *BasicProfile) ([]byte, []byte, error) {
	values, err := json.Marshal(profile.Values)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal profile values: %w", err)
	}
	status, err := json.Marshal(profile.Status)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal profile status: %w", err)
	}
	return values, status, nil
}
