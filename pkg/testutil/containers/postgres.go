//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Schema creates the tables the postgres stores expect. Kept here so
// integration suites can spin up a disposable database without a migration
// tool.
const Schema = `
CREATE TABLE IF NOT EXISTS basic_profiles (
	student_id   UUID PRIMARY KEY,
	field_values JSONB NOT NULL,
	field_status JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	id            UUID PRIMARY KEY,
	student_id    UUID NOT NULL,
	kind          TEXT NOT NULL,
	details       JSONB NOT NULL,
	is_verified   BOOLEAN NOT NULL,
	remark        TEXT,
	last_verified TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS records_student_idx ON records (student_id);

CREATE TABLE IF NOT EXISTS postings (
	id          UUID PRIMARY KEY,
	company     TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	eligibility JSONB NOT NULL,
	flow        JSONB NOT NULL,
	status      TEXT NOT NULL,
	deadline    TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS applications (
	id         UUID PRIMARY KEY,
	student_id UUID NOT NULL,
	job_id     UUID NOT NULL,
	resume_id  UUID NOT NULL,
	status     TEXT NOT NULL,
	stage      TEXT NOT NULL,
	history    JSONB NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (student_id, job_id)
);
CREATE INDEX IF NOT EXISTS applications_job_idx ON applications (job_id);
`

// PostgresContainer wraps a testcontainers Postgres instance with the schema
// applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	URL       string
}

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("placement_test"),
		tcpostgres.WithUsername("placement"),
		tcpostgres.WithPassword("placement"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	pc := &PostgresContainer{Container: container, DB: db, URL: url}
	t.Cleanup(func() {
		_ = db.Close()
		_ = container.Terminate(context.Background())
	})
	return pc
}

// Truncate clears every table. Use between tests to ensure isolation.
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx,
		`TRUNCATE basic_profiles, records, postings, applications`)
	return err
}
