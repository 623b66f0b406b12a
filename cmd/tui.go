package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cwlog/internal/shared"
	"github.com/desertthunder/cwlog/internal/source"
	"github.com/desertthunder/cwlog/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive log viewer.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	store, err := r.runStore(cmd.Bool("record"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/cwlog-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	follower := source.NewFollower(r.backendSource(), r.formatterOptions(false), store, r.logger)
	model := ui.NewModel(ctx, follower)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
