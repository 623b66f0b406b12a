package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/cwlog/internal/models"
	"github.com/desertthunder/cwlog/internal/repositories"
	"github.com/desertthunder/cwlog/internal/shared"
	"github.com/urfave/cli/v3"
)

// runRecord is the JSON shape of one recorded run.
type runRecord struct {
	ID         string `json:"id"`
	RunID      string `json:"run_id"`
	DryRun     bool   `json:"dry_run"`
	Conflict   string `json:"conflict,omitempty"`
	Added      int    `json:"added"`
	Removed    int    `json:"removed"`
	Pairs      int    `json:"pairs"`
	ExitState  string `json:"exit_state"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

func toRecord(run *models.Run) runRecord {
	rec := runRecord{
		ID:        run.ID(),
		RunID:     run.RunID,
		DryRun:    run.DryRun,
		Conflict:  run.Conflict,
		Added:     run.Added,
		Removed:   run.Removed,
		Pairs:     run.Pairs,
		ExitState: run.ExitState,
		StartedAt: run.StartedAt.Format(time.RFC3339),
	}
	if !run.FinishedAt.IsZero() {
		rec.FinishedAt = run.FinishedAt.Format(time.RFC3339)
	}
	return rec
}

// RunsList prints recent recorded sync runs.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}

	runs, err := repositories.NewRunRepository(db).Recent(cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if cmd.Bool("json") {
		records := make([]runRecord, 0, len(runs))
		for _, run := range runs {
			records = append(records, toRecord(run))
		}
		return r.writeJSON(records, true)
	}

	if len(runs) == 0 {
		return r.writePlain("no recorded runs\n")
	}

	for _, run := range runs {
		line := fmt.Sprintf("%s  %-8s  +%d/-%d  pairs=%d  %s",
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.ExitState, run.Added, run.Removed, run.Pairs, run.RunID)
		if run.DryRun {
			line += "  (dry run)"
		}
		if err := r.writePlain("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

// RunsShow prints one recorded run looked up by its backend run id.
func (r *Runner) RunsShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	runID := cmd.StringArg("run-id")
	if runID == "" {
		return fmt.Errorf("%w: run-id", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}

	run, err := repositories.NewRunRepository(db).GetByRunID(runID)
	if err != nil {
		return err
	}

	return r.writeJSON(toRecord(run), cmd.Bool("pretty"))
}
