package postgres

import (
	"context"
	"database/sql"
	"errors"
)

// SetActiveRun records runID as the automation's active run, superseding any
// previous one. The row is the durable side of stale-run fencing: after a
// restart the server can still tell which run id is allowed to report status.
func (s *PostgresStore) SetActiveRun(ctx context.Context, automationID, runID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO active_runs (automation_id, run_id)
		VALUES ($1, $2)
		ON CONFLICT (automation_id) DO UPDATE SET run_id = $2, started_at = NOW()`,
		automationID, runID,
	)
	return err
}

// ActiveRun returns the automation's current run id, or "" (not an error)
// when no run has been started.
func (s *PostgresStore) ActiveRun(ctx context.Context, automationID string) (string, error) {
	var runID string
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id FROM active_runs
		WHERE automation_id = $1`,
		automationID,
	).Scan(&runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return runID, nil
}

// ClearActiveRun removes the active-run row, but only if it still names the
// given run id. A newer run's row is left untouched.
func (s *PostgresStore) ClearActiveRun(ctx context.Context, automationID, runID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM active_runs
		WHERE automation_id = $1 AND run_id = $2`,
		automationID, runID,
	)
	return err
}

// The txStore variants delegate to the same statements via the transaction executor.

func (s *txStore) SetActiveRun(ctx context.Context, automationID, runID string) error {
	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO active_runs (automation_id, run_id)
		VALUES ($1, $2)
		ON CONFLICT (automation_id) DO UPDATE SET run_id = $2, started_at = NOW()`,
		automationID, runID,
	)
	return err
}

func (s *txStore) ActiveRun(ctx context.Context, automationID string) (string, error) {
	var runID string
	err := s.tx.QueryRowContext(ctx, `
		SELECT run_id FROM active_runs
		WHERE automation_id = $1`,
		automationID,
	).Scan(&runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return runID, nil
}

func (s *txStore) ClearActiveRun(ctx context.Context, automationID, runID string) error {
	_, err := s.tx.ExecContext(ctx, `
		DELETE FROM active_runs
		WHERE automation_id = $1 AND run_id = $2`,
		automationID, runID,
	)
	return err
}
