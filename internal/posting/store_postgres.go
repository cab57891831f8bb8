package posting

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	id "placement/pkg/domain"
	"placement/pkg/platform/sentinel"
)

// PostgresStore persists postings in PostgreSQL. The eligibility rule set and
// hiring flow are stored as JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, posting *Posting) error {
	eligibility, err := json.Marshal(posting.Eligibility)
	if err != nil {
		return fmt.Errorf("marshal eligibility: %w", err)
	}
	flow, err := json.Marshal(posting.Flow)
	if err != nil {
		return fmt.Errorf("marshal flow: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO postings (id, company, title, description, eligibility, flow, status, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		posting.ID.String(), posting.Company, posting.Title, posting.Description,
		eligibility, flow, string(posting.Status), posting.Deadline, posting.CreatedAt, posting.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create posting: %w", err)
	}
	return nil
}

const postingColumns = "id, company, title, description, eligibility, flow, status, deadline, created_at, updated_at"

func (s *PostgresStore) Find(ctx context.Context, jobID id.JobID) (*Posting, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+postingColumns+` FROM postings WHERE id = $1`,
		jobID.String(),
	)
	return scanPosting(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*Posting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postingColumns+` FROM postings ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	defer rows.Close()

	var out []*Posting
	for rows.Next() {
		posting, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, posting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Execute(ctx context.Context, jobID id.JobID,
	validate func(*Posting) error, mutate func(*Posting)) (*Posting, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT `+postingColumns+` FROM postings WHERE id = $1 FOR UPDATE`,
		jobID.String(),
	)
	posting, err := scanPosting(row)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(posting); err != nil {
			return nil, err
		}
	}
	mutate(posting)

	if _, err := tx.ExecContext(ctx, `
		UPDATE postings SET status = $2, updated_at = $3 WHERE id = $1`,
		posting.ID.String(), string(posting.Status), posting.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update posting: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit posting update: %w", err)
	}
	return posting, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosting(row rowScanner) (*Posting, error) {
	var (
		posting     Posting
		rawID       string
		rawStatus   string
		eligibility []byte
		flow        []byte
	)
	err := row.Scan(&rawID, &posting.Company, &posting.Title, &posting.Description,
		&eligibility, &flow, &rawStatus, &posting.Deadline, &posting.CreatedAt, &posting.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan posting: %w", err)
	}
	jobID, err := id.ParseJobID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan posting: %w", err)
	}
	posting.ID = jobID
	posting.Status = Status(rawStatus)
	if err := json.Unmarshal(eligibility, &posting.Eligibility); err != nil {
		return nil, fmt.Errorf("unmarshal eligibility: %w", err)
	}
	if err := json.Unmarshal(flow, &posting.Flow); err != nil {
		return nil, fmt.Errorf("unmarshal flow: %w", err)
	}
	return &posting, nil
}

// isUniqueViolation matches the postgres unique_violation SQLSTATE (23505)
// without binding to a driver-specific error type.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
