package source

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cwlog/internal/formatter"
	"github.com/desertthunder/cwlog/internal/models"
	"github.com/desertthunder/cwlog/internal/shared"
)

// RunStore persists sync runs observed in the stream. Satisfied by
// repositories.RunRepository; nil disables recording.
type RunStore interface {
	Create(run *models.Run) error
	Update(run *models.Run) error
}

// Follower pumps a [Source] into a formatter session and delivers rendered
// blocks on a channel, recording run lifecycle events along the way.
type Follower struct {
	source  Source
	session *formatter.Session
	store   RunStore
	logger  *log.Logger
	current *models.Run
}

// NewFollower wires a source to a fresh formatter session. The session's
// observer hook is claimed for run recording; opts.Observer still fires for
// every event.
func NewFollower(src Source, opts formatter.Options, store RunStore, logger *log.Logger) *Follower {
	f := &Follower{source: src, store: store, logger: logger}
	if f.logger == nil {
		f.logger = shared.NewLogger(nil)
	}

	inner := opts.Observer
	opts.Observer = func(ev *formatter.Event) {
		f.observe(ev)
		if inner != nil {
			inner(ev)
		}
	}
	f.session = formatter.NewSession(opts)

	return f
}

// Session exposes the follower's formatter session, e.g. for debug toggling.
func (f *Follower) Session() *formatter.Session { return f.session }

// Run pumps chunks until the source ends or the context is cancelled. Blocks
// are sent on out in arrival order; out is closed on return. A cancelled
// context marks any open run as aborted.
func (f *Follower) Run(ctx context.Context, out chan<- formatter.Block) error {
	defer close(out)

	for {
		chunk, err := f.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			if err := f.deliver(ctx, f.session.Flush(), out); err != nil {
				f.abortOpenRun()
				return err
			}
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				f.abortOpenRun()
				return ctx.Err()
			}
			return err
		}

		if err := f.deliver(ctx, f.session.Feed(chunk), out); err != nil {
			f.abortOpenRun()
			return err
		}
	}
}

func (f *Follower) deliver(ctx context.Context, blocks []formatter.Block, out chan<- formatter.Block) error {
	for _, block := range blocks {
		select {
		case out <- block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// observe tracks run lifecycle events for persistence. Storage failures are
// logged, never propagated; recording must not break the view.
func (f *Follower) observe(ev *formatter.Event) {
	if f.store == nil {
		return
	}

	switch ev.Kind {
	case "run:start":
		runID := f.session.PendingRunID()
		if runID == "" {
			runID = shared.GenerateID()
		}

		run := models.NewRun(runID, ev.Bool("dry_run"), ev.Str("conflict"), time.Now().UTC())
		if err := f.store.Create(run); err != nil {
			f.logger.Error("failed to record run start", "run_id", runID, "err", err)
			return
		}
		f.current = run

	case "run:done":
		if f.current == nil {
			return
		}
		f.current.Finish(ev.Int("added"), ev.Int("removed"), ev.Int("pairs"), time.Now().UTC())
		if err := f.store.Update(f.current); err != nil {
			f.logger.Error("failed to record run completion", "run_id", f.current.RunID, "err", err)
		}
		f.current = nil
	}
}

// abortOpenRun marks a still-running recorded run as aborted.
func (f *Follower) abortOpenRun() {
	if f.store == nil || f.current == nil {
		return
	}

	f.current.ExitState = models.RunStateAborted
	f.current.FinishedAt = time.Now().UTC()
	if err := f.store.Update(f.current); err != nil {
		f.logger.Error("failed to record run abort", "run_id", f.current.RunID, "err", err)
	}
	f.current = nil
}
