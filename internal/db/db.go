// Package db provides the optional PostgreSQL run ledger: one row per workflow run,
// one row per stage, and daily customization counts per profile.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id              UUID PRIMARY KEY,
	profile_name    TEXT NOT NULL,
	job_url         TEXT NOT NULL DEFAULT '',
	company         TEXT NOT NULL DEFAULT '',
	role_title      TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	failed_stage    TEXT,
	failure_reason  TEXT,
	tracking_error  TEXT,
	elapsed_seconds INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS run_steps (
	id            UUID PRIMARY KEY,
	run_id        UUID NOT NULL REFERENCES pipeline_runs(id) ON DELETE CASCADE,
	step          TEXT NOT NULL,
	status        TEXT NOT NULL,
	started_at    TIMESTAMPTZ,
	completed_at  TIMESTAMPTZ,
	duration_ms   INTEGER,
	error_message TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (run_id, step)
);

CREATE TABLE IF NOT EXISTS customize_counts (
	day         DATE NOT NULL,
	profile_key TEXT NOT NULL,
	count       INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (day, profile_key)
);
`

// Migrate creates the ledger tables if they do not exist
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// CreateRun inserts a running pipeline run record
func (db *DB) CreateRun(ctx context.Context, runID uuid.UUID, profileName, jobURL string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO pipeline_runs (id, profile_name, job_url, status)
		 VALUES ($1, $2, $3, $4)`,
		runID, profileName, jobURL, RunStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun records the terminal state of a run
func (db *DB) CompleteRun(ctx context.Context, c RunCompletion) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE pipeline_runs
		 SET status = $1, company = $2, role_title = $3, failed_stage = $4, failure_reason = $5,
		     tracking_error = $6, elapsed_seconds = $7, completed_at = NOW()
		 WHERE id = $8`,
		c.Status, c.Company, c.RoleTitle, nullable(c.FailedStage), nullable(c.FailureReason),
		nullable(c.TrackingError), c.ElapsedSeconds, c.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a pipeline run by ID, or nil when it does not exist
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM pipeline_runs WHERE id = $1`, runID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves recent pipeline runs, newest first
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

const runColumns = `id, profile_name, job_url, company, role_title, status, failed_stage,
	failure_reason, tracking_error, elapsed_seconds, created_at, completed_at`

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	var failedStage, failureReason, trackingError *string
	err := row.Scan(&run.ID, &run.ProfileName, &run.JobURL, &run.Company, &run.RoleTitle, &run.Status,
		&failedStage, &failureReason, &trackingError, &run.ElapsedSeconds, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		return nil, err
	}
	run.FailedStage = deref(failedStage)
	run.FailureReason = deref(failureReason)
	run.TrackingError = deref(trackingError)
	return &run, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
