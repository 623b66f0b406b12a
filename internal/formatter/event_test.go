package formatter

import (
	"testing"
)

func TestParseEvent(t *testing.T) {
	t.Run("RecognizesDiscriminator", func(t *testing.T) {
		ev, ok := ParseEvent(`{"event":"run:start","dry_run":true}`)
		if !ok {
			t.Fatal("expected ok")
		}
		if ev.Kind != "run:start" {
			t.Errorf("unexpected kind: %q", ev.Kind)
		}
		if !ev.Bool("dry_run") {
			t.Error("expected dry_run true")
		}
	})

	t.Run("RejectsPlainText", func(t *testing.T) {
		if _, ok := ParseEvent("Done. Total added: 2"); ok {
			t.Error("plain text should not parse")
		}
	})

	t.Run("RejectsMalformedJSON", func(t *testing.T) {
		if _, ok := ParseEvent(`{"event":"run:start"`); ok {
			t.Error("malformed JSON should not parse")
		}
	})

	t.Run("RejectsMissingDiscriminator", func(t *testing.T) {
		if _, ok := ParseEvent(`{"msg":"hello"}`); ok {
			t.Error("object without event field should not parse")
		}
	})

	t.Run("CoercesFieldTypes", func(t *testing.T) {
		ev, ok := ParseEvent(`{"event":"x","n":"3","count":4.0,"flag":"1"}`)
		if !ok {
			t.Fatal("expected ok")
		}
		if ev.Int("n") != 3 {
			t.Errorf("string int coercion: got %d", ev.Int("n"))
		}
		if ev.Int("count") != 4 {
			t.Errorf("float coercion: got %d", ev.Int("count"))
		}
		if !ev.Bool("flag") {
			t.Error("string bool coercion failed")
		}
		if ev.Int("missing") != 0 {
			t.Error("missing field should coerce to zero")
		}
	})

	t.Run("ResultCountPrefersNested", func(t *testing.T) {
		ev, _ := ParseEvent(`{"event":"x","count":1,"result":{"count":5}}`)
		if ev.ResultCount() != 5 {
			t.Errorf("expected nested count 5, got %d", ev.ResultCount())
		}

		ev, _ = ParseEvent(`{"event":"x","count":2}`)
		if ev.ResultCount() != 2 {
			t.Errorf("expected top-level count 2, got %d", ev.ResultCount())
		}
	})
}

// feed parses the token as an event and runs it through the session, failing
// the test when the token does not parse.
func feedEvent(t *testing.T, s *Session, token string) []Block {
	t.Helper()
	if _, ok := ParseEvent(token); !ok {
		t.Fatalf("token did not parse as event: %s", token)
	}
	return s.RenderToken(token)
}

func TestFormatEvent(t *testing.T) {
	t.Run("RunStart", func(t *testing.T) {
		s := NewSession(Options{})
		blocks := feedEvent(t, s, `{"event":"run:start","dry_run":true,"conflict":"source"}`)
		if len(blocks) != 1 {
			t.Fatalf("expected 1 block, got %d", len(blocks))
		}
		b := blocks[0]
		if b.Title != "Sync started" || b.Tone != ToneStart {
			t.Errorf("unexpected block: %+v", b)
		}
		if !hasKV(b, "dry_run", "true") || !hasKV(b, "conflict", "source") {
			t.Errorf("missing metadata: %+v", b.Meta)
		}
	})

	t.Run("RunPairArrowFollowsMode", func(t *testing.T) {
		s := NewSession(Options{})
		blocks := feedEvent(t, s, `{"event":"run:pair","src":"PLEX","dst":"SIMKL","mode":"two-way","feature":"watchlist","i":1,"n":2}`)
		b := blocks[0]
		if b.Title != "PLEX ⇄ SIMKL" {
			t.Errorf("two-way mode should use ⇄, got %q", b.Title)
		}
		if !hasKV(b, "pair", "1/2") {
			t.Errorf("missing pair progress: %+v", b.Meta)
		}

		blocks = feedEvent(t, s, `{"event":"run:pair","src":"A","dst":"B","mode":"one-way"}`)
		if blocks[0].Title != "A → B" {
			t.Errorf("one-way mode should use →, got %q", blocks[0].Title)
		}
	})

	t.Run("PairStartSuppressed", func(t *testing.T) {
		s := NewSession(Options{})
		if blocks := feedEvent(t, s, `{"event":"pair:start"}`); blocks != nil {
			t.Errorf("pair:start should render nothing, got %v", blocks)
		}
	})

	t.Run("ApplyStartSuppressed", func(t *testing.T) {
		s := NewSession(Options{})
		if blocks := feedEvent(t, s, `{"event":"two:apply:add:A:start","dst":"PLEX"}`); blocks != nil {
			t.Errorf("apply start should render nothing, got %v", blocks)
		}
	})

	t.Run("ApplyDoneTalliesByDst", func(t *testing.T) {
		s := NewSession(Options{})
		feedEvent(t, s, `{"event":"two:start","a":"PLEX","b":"SIMKL","feature":"watchlist","removals":true}`)
		feedEvent(t, s, `{"event":"two:apply:add:A:done","dst":"PLEX","result":{"count":3}}`)
		feedEvent(t, s, `{"event":"two:apply:add:B:done","dst":"SIMKL","count":2}`)
		feedEvent(t, s, `{"event":"two:apply:remove:A:done","dst":"PLEX","result":{"count":1}}`)

		blocks := feedEvent(t, s, `{"event":"two:done","a":"PLEX","b":"SIMKL"}`)
		if len(blocks) != 2 {
			t.Fatalf("expected removed+added summary, got %d blocks", len(blocks))
		}

		removed, added := blocks[0], blocks[1]
		if removed.Title != "Removed" || added.Title != "Added" {
			t.Fatalf("summary order wrong: %q, %q", removed.Title, added.Title)
		}
		if !hasKV(added, "PLEX", "3") || !hasKV(added, "SIMKL", "2") {
			t.Errorf("added tallies wrong: %+v", added.Meta)
		}
		if !hasKV(removed, "PLEX", "1") || !hasKV(removed, "SIMKL", "0") {
			t.Errorf("removed tallies wrong: %+v", removed.Meta)
		}
		if added.Tone != ToneAdd || removed.Tone != ToneRemove {
			t.Errorf("summary tones wrong: %v %v", added.Tone, removed.Tone)
		}
	})

	t.Run("ApplyDoneFallsBackToDiscriminatorSide", func(t *testing.T) {
		s := NewSession(Options{})
		feedEvent(t, s, `{"event":"two:start","a":"PLEX","b":"TRAKT"}`)
		feedEvent(t, s, `{"event":"two:apply:add:B:done","count":4}`)

		blocks := feedEvent(t, s, `{"event":"two:done"}`)
		added := blocks[1]
		if !hasKV(added, "TRAKT", "4") {
			t.Errorf("expected :B: attributed to TRAKT, got %+v", added.Meta)
		}
	})

	t.Run("EmptyBucketRendersMuted", func(t *testing.T) {
		s := NewSession(Options{})
		feedEvent(t, s, `{"event":"two:apply:add:A:done","dst":"A","count":2}`)
		blocks := feedEvent(t, s, `{"event":"two:done"}`)
		if blocks[0].Tone != ToneMuted {
			t.Errorf("removed bucket with no items should be muted, got %v", blocks[0].Tone)
		}
		if blocks[1].Tone != ToneAdd {
			t.Errorf("added bucket with items should keep its tone, got %v", blocks[1].Tone)
		}
	})

	t.Run("CountersResetBetweenPairs", func(t *testing.T) {
		s := NewSession(Options{})
		feedEvent(t, s, `{"event":"two:apply:add:A:done","dst":"A","count":5}`)
		feedEvent(t, s, `{"event":"two:done"}`)

		blocks := feedEvent(t, s, `{"event":"two:done"}`)
		if !hasKV(blocks[1], "A", "0") {
			t.Errorf("counters should reset after two:done, got %+v", blocks[1].Meta)
		}
	})

	t.Run("TwoPlanNothingToDo", func(t *testing.T) {
		s := NewSession(Options{})
		blocks := feedEvent(t, s, `{"event":"two:plan","add_to_A":0,"add_to_B":0,"rem_from_A":0,"rem_from_B":0}`)
		b := blocks[0]
		if b.Tone != ToneMuted || b.Title != "Plan: nothing to do" {
			t.Errorf("zero plan should render muted no-op, got %+v", b)
		}

		blocks = feedEvent(t, s, `{"event":"two:plan","add_to_A":2,"add_to_B":0,"rem_from_A":0,"rem_from_B":1}`)
		if blocks[0].Tone != ToneInfo || blocks[0].Title != "Plan" {
			t.Errorf("non-zero plan wrong: %+v", blocks[0])
		}
	})

	t.Run("DebugEventSortedMeta", func(t *testing.T) {
		s := NewSession(Options{})
		blocks := feedEvent(t, s, `{"event":"debug","msg":"probe","zeta":1,"alpha":2}`)
		b := blocks[0]
		if b.Title != "probe" || b.Tone != ToneMuted {
			t.Errorf("unexpected debug block: %+v", b)
		}
		if len(b.Meta) != 2 || b.Meta[0].Key != "alpha" || b.Meta[1].Key != "zeta" {
			t.Errorf("meta keys not sorted: %+v", b.Meta)
		}
	})

	t.Run("SnapshotStart", func(t *testing.T) {
		s := NewSession(Options{})
		blocks := feedEvent(t, s, `{"event":"snapshot:start","a":"PLEX","b":"SIMKL","feature":"ratings"}`)
		if blocks[0].Title != "Snapshot PLEX vs SIMKL" {
			t.Errorf("unexpected title: %q", blocks[0].Title)
		}
	})

	t.Run("RunDoneTotals", func(t *testing.T) {
		s := NewSession(Options{})
		blocks := feedEvent(t, s, `{"event":"run:done","added":7,"removed":1,"pairs":2}`)
		b := blocks[0]
		if b.Title != "Sync complete" || b.Tone != ToneOK {
			t.Errorf("unexpected block: %+v", b)
		}
		if !hasKV(b, "added", "7") || !hasKV(b, "removed", "1") || !hasKV(b, "pairs", "2") {
			t.Errorf("missing totals: %+v", b.Meta)
		}
	})

	t.Run("UnknownEventDropped", func(t *testing.T) {
		s := NewSession(Options{})
		if blocks := feedEvent(t, s, `{"event":"totally:new"}`); blocks != nil {
			t.Errorf("unknown event should render nothing, got %v", blocks)
		}
	})
}

func hasKV(b Block, key, value string) bool {
	for _, pair := range b.Meta {
		if pair.Key == key && pair.Value == value {
			return true
		}
	}
	return false
}
