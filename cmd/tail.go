package main

import (
	"context"
	"errors"

	"github.com/desertthunder/cwlog/internal/formatter"
	"github.com/desertthunder/cwlog/internal/render"
	"github.com/desertthunder/cwlog/internal/repositories"
	"github.com/desertthunder/cwlog/internal/source"
	"github.com/urfave/cli/v3"
)

// Tail follows the backend log endpoint, rendering blocks to the terminal as
// they arrive. Interrupt (context cancellation) is a clean exit.
func (r *Runner) Tail(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	store, err := r.runStore(cmd.Bool("record"))
	if err != nil {
		return err
	}

	follower := source.NewFollower(r.backendSource(), r.formatterOptions(cmd.Bool("debug")), store, r.logger)
	palette := render.DefaultPalette()

	blocks := make(chan formatter.Block, 64)
	done := make(chan error, 1)
	go func() { done <- follower.Run(ctx, blocks) }()

	for block := range blocks {
		if err := r.writePlain("%s\n", palette.Term(block)); err != nil {
			return err
		}
	}

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runStore opens the database-backed run recorder, or nil when recording is
// disabled.
func (r *Runner) runStore(record bool) (source.RunStore, error) {
	if !record {
		return nil, nil
	}

	db, err := r.openDatabase()
	if err != nil {
		return nil, err
	}
	return repositories.NewRunRepository(db), nil
}
