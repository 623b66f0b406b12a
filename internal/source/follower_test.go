package source

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/desertthunder/cwlog/internal/formatter"
	"github.com/desertthunder/cwlog/internal/models"
	th "github.com/desertthunder/cwlog/internal/testing"
)

// collect runs the follower to completion and gathers delivered blocks.
func collect(t *testing.T, f *Follower, ctx context.Context) ([]formatter.Block, error) {
	t.Helper()

	out := make(chan formatter.Block)
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx, out) }()

	var blocks []formatter.Block
	for block := range out {
		blocks = append(blocks, block)
	}
	return blocks, <-done
}

func TestFollower(t *testing.T) {
	t.Run("DeliversBlocksInOrder", func(t *testing.T) {
		src := &th.ScriptedSource{Chunks: []string{
			"> SYNC start: orchestrator pairs run_id=7\n",
			`{"event":"run:start","dry_run":false}`,
			`{"event":"run:done","added":1,"removed":0,"pairs":1}`,
		}}
		f := NewFollower(src, formatter.Options{}, nil, nil)

		blocks, err := collect(t, f, context.Background())
		if err != nil {
			t.Fatalf("follower failed: %v", err)
		}

		want := []string{"Sync run starting", "Sync started", "Sync complete"}
		if len(blocks) != len(want) {
			t.Fatalf("expected %d blocks, got %d: %+v", len(want), len(blocks), blocks)
		}
		for i, title := range want {
			if blocks[i].Title != title {
				t.Errorf("block %d: got %q, want %q", i, blocks[i].Title, title)
			}
		}
	})

	t.Run("FlushesTrailingLineAtEOF", func(t *testing.T) {
		src := &th.ScriptedSource{Chunks: []string{"no trailing newline"}}
		f := NewFollower(src, formatter.Options{}, nil, nil)

		blocks, err := collect(t, f, context.Background())
		if err != nil {
			t.Fatalf("follower failed: %v", err)
		}
		if len(blocks) != 1 || blocks[0].Text != "no trailing newline" {
			t.Errorf("trailing line not flushed: %+v", blocks)
		}
	})

	t.Run("RecordsRunLifecycle", func(t *testing.T) {
		src := &th.ScriptedSource{Chunks: []string{
			"> SYNC start: orchestrator pairs run_id=1699.42\n",
			`{"event":"run:start","dry_run":true,"conflict":"source"}`,
			`{"event":"run:done","added":3,"removed":1,"pairs":2}`,
		}}
		store := &th.MemoryRunStore{}
		f := NewFollower(src, formatter.Options{}, store, nil)

		if _, err := collect(t, f, context.Background()); err != nil {
			t.Fatalf("follower failed: %v", err)
		}

		if len(store.Created) != 1 {
			t.Fatalf("expected 1 created run, got %d", len(store.Created))
		}
		run := store.Created[0]
		if run.RunID != "1699.42" || !run.DryRun || run.Conflict != "source" {
			t.Errorf("run fields wrong: %+v", run)
		}

		if len(store.Updated) != 1 {
			t.Fatalf("expected 1 updated run, got %d", len(store.Updated))
		}
		final := store.Updated[0]
		if final.ExitState != models.RunStateFinished {
			t.Errorf("expected finished state, got %q", final.ExitState)
		}
		if final.Added != 3 || final.Removed != 1 || final.Pairs != 2 {
			t.Errorf("totals wrong: %+v", final)
		}
	})

	t.Run("GeneratesRunIDWhenMissing", func(t *testing.T) {
		src := &th.ScriptedSource{Chunks: []string{`{"event":"run:start"}`}}
		store := &th.MemoryRunStore{}
		f := NewFollower(src, formatter.Options{}, store, nil)

		if _, err := collect(t, f, context.Background()); err != nil {
			t.Fatalf("follower failed: %v", err)
		}
		if len(store.Created) != 1 || store.Created[0].RunID == "" {
			t.Errorf("expected generated run id: %+v", store.Created)
		}
	})

	t.Run("CancellationAbortsOpenRun", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		src := &th.ScriptedSource{
			Chunks: []string{`{"event":"run:start"}`},
			Wait:   true,
		}
		store := &th.MemoryRunStore{}
		f := NewFollower(src, formatter.Options{}, store, nil)

		out := make(chan formatter.Block)
		done := make(chan error, 1)
		go func() { done <- f.Run(ctx, out) }()
		<-out // run:start block
		cancel()
		for range out {
		}
		if err := <-done; err == nil {
			t.Fatal("expected error from cancelled run")
		}

		if len(store.Updated) != 1 || store.Updated[0].ExitState != models.RunStateAborted {
			t.Errorf("open run should be marked aborted: %+v", store.Updated)
		}
	})

	t.Run("CancellationDuringFlushAbortsOpenRun", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		src := &cancelAtEOFSource{
			chunk:  `{"event":"run:start"}tail pending`,
			cancel: cancel,
		}
		store := &th.MemoryRunStore{}
		f := NewFollower(src, formatter.Options{}, store, nil)

		out := make(chan formatter.Block)
		done := make(chan error, 1)
		go func() { done <- f.Run(ctx, out) }()
		<-out // run:start block, then stop reading

		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context error from flush delivery, got %v", err)
		}
		if len(store.Updated) != 1 || store.Updated[0].ExitState != models.RunStateAborted {
			t.Errorf("open run should be marked aborted: %+v", store.Updated)
		}
	})

	t.Run("StorageFailureDoesNotBreakView", func(t *testing.T) {
		src := &th.ScriptedSource{Chunks: []string{
			`{"event":"run:start"}{"event":"run:done","added":1}`,
		}}
		store := &th.MemoryRunStore{FailOn: "create"}
		f := NewFollower(src, formatter.Options{}, store, nil)

		blocks, err := collect(t, f, context.Background())
		if err != nil {
			t.Fatalf("storage failure should not surface: %v", err)
		}
		if len(blocks) != 2 {
			t.Errorf("view should still render, got %+v", blocks)
		}
		if len(store.Updated) != 0 {
			t.Errorf("failed create should leave nothing to update: %+v", store.Updated)
		}
	})

	t.Run("SourceErrorPropagates", func(t *testing.T) {
		src := &th.ScriptedSource{Err: errors.New("backend gone")}
		f := NewFollower(src, formatter.Options{}, nil, nil)

		if _, err := collect(t, f, context.Background()); err == nil {
			t.Fatal("expected source error to propagate")
		}
	})

	t.Run("ObserverOptionStillFires", func(t *testing.T) {
		var kinds []string
		src := &th.ScriptedSource{Chunks: []string{`{"event":"run:start"}`}}
		opts := formatter.Options{Observer: func(ev *formatter.Event) { kinds = append(kinds, ev.Kind) }}
		f := NewFollower(src, opts, &th.MemoryRunStore{}, nil)

		if _, err := collect(t, f, context.Background()); err != nil {
			t.Fatalf("follower failed: %v", err)
		}
		if len(kinds) != 1 || kinds[0] != "run:start" {
			t.Errorf("chained observer did not fire: %v", kinds)
		}
	})
}

// cancelAtEOFSource yields one chunk with a trailing partial line, then
// cancels its context at end of stream so the flush delivery runs against a
// cancelled context.
type cancelAtEOFSource struct {
	chunk  string
	sent   bool
	cancel context.CancelFunc
}

func (s *cancelAtEOFSource) Next(ctx context.Context) (string, error) {
	if !s.sent {
		s.sent = true
		return s.chunk, nil
	}
	s.cancel()
	return "", io.EOF
}
