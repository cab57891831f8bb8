package application

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"placement/internal/posting"
	id "placement/pkg/domain"
	"placement/pkg/platform/sentinel"
)

// PostgresStore persists applications in PostgreSQL. The transition history
// is stored as JSONB; a unique index on (student_id, job_id) enforces the
// one-application-per-posting rule at the storage layer.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const applicationColumns = `id, student_id, job_id, resume_id, status, stage, history, applied_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, application *Application) error {
	history, err := json.Marshal(application.History)
	if err != nil {
		return fmt.Errorf("marshal application history: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		application.ID.String(), application.StudentID.String(), application.JobID.String(),
		application.ResumeID.String(), string(application.Status), string(application.Stage),
		history, application.AppliedAt, application.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, applicationID id.ApplicationID) (*Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+applicationColumns+` FROM applications WHERE id = $1`,
		applicationID.String(),
	)
	return scanApplication(row)
}

func (s *PostgresStore) FindByStudentAndJob(ctx context.Context, studentID id.StudentID, jobID id.JobID) (*Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+applicationColumns+` FROM applications WHERE student_id = $1 AND job_id = $2`,
		studentID.String(), jobID.String(),
	)
	return scanApplication(row)
}

func (s *PostgresStore) ListByStudent(ctx context.Context, studentID id.StudentID) ([]*Application, error) {
	return s.list(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE student_id = $1 ORDER BY applied_at, id`,
		studentID.String())
}

func (s *PostgresStore) ListByJob(ctx context.Context, jobID id.JobID) ([]*Application, error) {
	return s.list(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE job_id = $1 ORDER BY applied_at, id`,
		jobID.String())
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]*Application, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*Application
	for rows.Next() {
		application, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, application)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Execute(ctx context.Context, applicationID id.ApplicationID,
	validate func(*Application) error, mutate func(*Application)) (*Application, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT `+applicationColumns+` FROM applications WHERE id = $1 FOR UPDATE`,
		applicationID.String(),
	)
	application, err := scanApplication(row)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(application); err != nil {
			return nil, err
		}
	}
	mutate(application)

	history, err := json.Marshal(application.History)
	if err != nil {
		return nil, fmt.Errorf("marshal application history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE applications SET status = $2, stage = $3, history = $4, updated_at = $5
		WHERE id = $1`,
		application.ID.String(), string(application.Status), string(application.Stage),
		history, application.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit application update: %w", err)
	}
	return application, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*Application, error) {
	var (
		application Application
		rawID       string
		rawStudent  string
		rawJob      string
		rawResume   string
		rawStatus   string
		rawStage    string
		history     []byte
	)
	err := row.Scan(&rawID, &rawStudent, &rawJob, &rawResume, &rawStatus, &rawStage,
		&history, &application.AppliedAt, &application.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}
	applicationID, err := id.ParseApplicationID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}
	studentID, err := id.ParseStudentID(rawStudent)
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}
	jobID, err := id.ParseJobID(rawJob)
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}
	resumeID, err := id.ParseResumeID(rawResume)
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}
	application.ID = applicationID
	application.StudentID = studentID
	application.JobID = jobID
	application.ResumeID = resumeID
	application.Status = Status(rawStatus)
	application.Stage = posting.HiringStep(rawStage)
	if err := json.Unmarshal(history, &application.History); err != nil {
		return nil, fmt.Errorf("unmarshal application history: %w", err)
	}
	return &application, nil
}

// isUniqueViolation matches the postgres unique_violation SQLSTATE (23505)
// without binding to a driver-specific error type.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
