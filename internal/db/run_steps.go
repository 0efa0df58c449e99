package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Run Steps Methods
// -----------------------------------------------------------------------------

// StartStep records a stage as in progress, restarting it if it was recorded before
func (db *DB) StartStep(ctx context.Context, runID uuid.UUID, step string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO run_steps (id, run_id, step, status, started_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (run_id, step) DO UPDATE
		 SET status = $4, started_at = NOW(), completed_at = NULL, duration_ms = NULL, error_message = NULL`,
		uuid.New(), runID, step, StepStatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("failed to start run step %s: %w", step, err)
	}
	return nil
}

// FinishStep records the final status of a stage. errMsg may be empty.
func (db *DB) FinishStep(ctx context.Context, runID uuid.UUID, step, status, errMsg string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE run_steps
		 SET status = $1, error_message = $2, completed_at = NOW(),
		     duration_ms = (EXTRACT(EPOCH FROM (NOW() - started_at)) * 1000)::INTEGER
		 WHERE run_id = $3 AND step = $4`,
		status, nullable(errMsg), runID, step,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run step %s: %w", step, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run step not found: %s/%s", runID, step)
	}
	return nil
}

// ListRunSteps retrieves all steps for a run in the order they started
func (db *DB) ListRunSteps(ctx context.Context, runID uuid.UUID) ([]RunStep, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, step, status, started_at, completed_at, duration_ms, error_message, created_at
		 FROM run_steps
		 WHERE run_id = $1
		 ORDER BY started_at, created_at`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	defer rows.Close()

	steps := []RunStep{}
	for rows.Next() {
		var step RunStep
		if err := rows.Scan(&step.ID, &step.RunID, &step.Step, &step.Status, &step.StartedAt,
			&step.CompletedAt, &step.DurationMs, &step.ErrorMessage, &step.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run step: %w", err)
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}
