package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/cwlog/internal/models"
	"github.com/desertthunder/cwlog/internal/shared"
)

// RunRepository implements models.Repository[*models.Run] for sync run history.
type RunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Run] = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = "id, sequence, run_id, dry_run, conflict, added, removed, pairs, exit_state, started_at, finished_at, created_at, updated_at"

// Create inserts a new run into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.SetID(shared.GenerateID())
	run.Sequence = sequence
	now := time.Now().UTC()
	run.SetTimestamps(now, now)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		run.ID(),
		run.Sequence,
		run.RunID,
		run.DryRun,
		run.Conflict,
		run.Added,
		run.Removed,
		run.Pairs,
		run.ExitState,
		run.StartedAt,
		nullableTime(run.FinishedAt),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByRunID retrieves a run by its backend run identifier
func (r *RunRepository) GetByRunID(runID string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE run_id = ? ORDER BY started_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRow(query, runID))
}

// Update persists totals and exit state for an existing run
func (r *RunRepository) Update(run *models.Run) error {
	if run.ID() == "" {
		return fmt.Errorf("%w: run has no id", shared.ErrInvalidInput)
	}

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE runs
		SET added = ?, removed = ?, pairs = ?, exit_state = ?, finished_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.Added,
		run.Removed,
		run.Pairs,
		run.ExitState,
		nullableTime(run.FinishedAt),
		time.Now().UTC(),
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return shared.ErrRunNotFound
	}

	return nil
}

// Delete removes a run by ID
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return shared.ErrRunNotFound
	}

	return nil
}

// List retrieves runs matching the given criteria (supported key: exit_state),
// most recent first.
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any

	if state, ok := criteria["exit_state"]; ok {
		query += " WHERE exit_state = ?"
		args = append(args, state)
	}
	query += " ORDER BY started_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Recent retrieves the most recent limit runs.
func (r *RunRepository) Recent(limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT ?`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *RunRepository) scanOne(row *sql.Row) (*models.Run, error) {
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, shared.ErrRunNotFound
	}
	return run, err
}

func scanRun(row rowScanner) (*models.Run, error) {
	var (
		run      models.Run
		id       string
		finished sql.NullTime
		created  time.Time
		updated  time.Time
	)

	err := row.Scan(
		&id,
		&run.Sequence,
		&run.RunID,
		&run.DryRun,
		&run.Conflict,
		&run.Added,
		&run.Removed,
		&run.Pairs,
		&run.ExitState,
		&run.StartedAt,
		&finished,
		&created,
		&updated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.SetID(id)
	run.SetTimestamps(created, updated)
	if finished.Valid {
		run.FinishedAt = finished.Time
	}

	return &run, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
