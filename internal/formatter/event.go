package formatter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Event is a parsed JSON token carrying a recognized "event" discriminator.
// Field accessors coerce defensively; upstream payloads are not guaranteed
// fully populated.
type Event struct {
	Kind   string
	fields map[string]any
}

// ParseEvent attempts to interpret a token as a structured event. It fails
// (ok=false) when the token is not a JSON object, does not parse, or lacks
// the "event" discriminator; the caller falls back to plain-line handling.
func ParseEvent(token string) (*Event, bool) {
	trimmed := strings.TrimSpace(token)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return nil, false
	}

	kind, ok := fields["event"].(string)
	if !ok || kind == "" {
		return nil, false
	}

	return &Event{Kind: kind, fields: fields}, true
}

// Str returns a string field, or "" when absent or not a string.
func (e *Event) Str(key string) string {
	s, _ := e.fields[key].(string)
	return s
}

// Int returns an integer field, coercing floats and numeric strings and
// treating anything else as zero.
func (e *Event) Int(key string) int {
	return coerceInt(e.fields[key])
}

// Bool returns a boolean field, accepting JSON booleans, "true"/"1" strings
// and non-zero numbers.
func (e *Event) Bool(key string) bool {
	switch v := e.fields[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	case float64:
		return v != 0
	default:
		return false
	}
}

// ResultCount returns the applied item count of an apply event, preferring
// the nested result.count over the top-level count.
func (e *Event) ResultCount() int {
	if result, ok := e.fields["result"].(map[string]any); ok {
		if v, ok := result["count"]; ok {
			return coerceInt(v)
		}
	}
	return e.Int("count")
}

// extraPairs returns all fields other than the discriminator as sorted
// key=value metadata, used by debug event rendering.
func (e *Event) extraPairs() []KV {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		if k == "event" || k == "msg" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]KV, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, kv(k, e.fields[k]))
	}
	return pairs
}

func coerceInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return int(f)
		}
	}
	return 0
}

// formatEvent dispatches a structured event to its rendering rule. A nil
// result means the event is either deliberately suppressed or unrecognized;
// either way nothing reaches the view.
func (s *Session) formatEvent(ev *Event) []Block {
	switch {
	case ev.Kind == "run:start":
		meta := []KV{kv("dry_run", ev.Bool("dry_run")), kv("conflict", ev.Str("conflict"))}
		if s.pendingRunID != "" {
			meta = append(meta, kv("run_id", s.pendingRunID))
			s.pendingRunID = ""
		}
		return []Block{styled(ToneStart, "🔄", "Sync started", meta...)}

	case ev.Kind == "run:pair":
		src, dst := ev.Str("src"), ev.Str("dst")
		mode := ev.Str("mode")
		arrow := "→"
		if strings.HasPrefix(mode, "two") {
			arrow = "⇄"
		}
		s.pairA, s.pairB = src, dst

		meta := []KV{}
		if f := ev.Str("feature"); f != "" {
			meta = append(meta, kv("feature", f))
		}
		if mode != "" {
			meta = append(meta, kv("mode", mode))
		}
		if n := ev.Int("n"); n > 0 {
			meta = append(meta, kv("pair", fmt.Sprintf("%d/%d", ev.Int("i"), n)))
		}
		meta = append(meta, kv("dry_run", ev.Bool("dry_run")))
		return []Block{styled(ToneInfo, "🔗", fmt.Sprintf("%s %s %s", src, arrow, dst), meta...)}

	case ev.Kind == "pair:start":
		return nil

	case ev.Kind == "two:start":
		s.rememberPair(ev)
		return []Block{styled(ToneStart, "⇄", "Two-way sync",
			kv("feature", ev.Str("feature")), kv("removals", ev.Bool("removals")))}

	case ev.Kind == "snapshot:start":
		a, b := endpointLabels(ev)
		return []Block{styled(ToneInfo, "📸", fmt.Sprintf("Snapshot %s vs %s", a, b),
			kv("feature", ev.Str("feature")))}

	case ev.Kind == "debug":
		title := ev.Str("msg")
		if title == "" {
			title = "debug"
		}
		return []Block{styled(ToneMuted, "·", title, ev.extraPairs()...)}

	case ev.Kind == "two:plan":
		s.rememberPair(ev)
		addA, addB := ev.Int("add_to_A"), ev.Int("add_to_B")
		remA, remB := ev.Int("rem_from_A"), ev.Int("rem_from_B")
		meta := []KV{
			kv("add_to_A", addA), kv("add_to_B", addB),
			kv("rem_from_A", remA), kv("rem_from_B", remB),
		}
		if addA+addB+remA+remB == 0 {
			return []Block{styled(ToneMuted, "📋", "Plan: nothing to do", meta...)}
		}
		return []Block{styled(ToneInfo, "📋", "Plan", meta...)}

	case isApplyEvent(ev.Kind, ":start"):
		return nil

	case isApplyEvent(ev.Kind, ":done"):
		s.tallyApply(ev)
		return nil

	case ev.Kind == "two:done":
		s.rememberPair(ev)
		blocks := []Block{s.summarize("Removed", "➖", ToneRemove, s.counters.remove),
			s.summarize("Added", "➕", ToneAdd, s.counters.add)}
		s.counters.reset()
		return blocks

	case ev.Kind == "run:done":
		return []Block{styled(ToneOK, "✅", "Sync complete",
			kv("added", ev.Int("added")), kv("removed", ev.Int("removed")), kv("pairs", ev.Int("pairs")))}
	}

	return nil
}

// isApplyEvent reports whether kind is a two:apply:{add,remove}:{A,B} event
// with the given phase suffix.
func isApplyEvent(kind, phase string) bool {
	return strings.HasPrefix(kind, "two:apply:") && strings.HasSuffix(kind, phase)
}

// tallyApply accumulates an apply completion into the running counters. The
// dst field is authoritative for provider attribution; the :A:/:B: substring
// in the discriminator is a deprecated fallback kept for older backends.
func (s *Session) tallyApply(ev *Event) {
	provider := ev.Str("dst")
	if provider == "" {
		if strings.Contains(ev.Kind, ":A:") {
			provider = s.sideA()
		} else {
			provider = s.sideB()
		}
	}

	count := ev.ResultCount()
	if strings.Contains(ev.Kind, ":add:") {
		s.counters.add[provider] += count
	} else {
		s.counters.remove[provider] += count
	}
}

// summarize renders one bucket of the two:done summary, listing both
// providers side by side. A bucket with no accumulated items renders muted.
func (s *Session) summarize(title, icon string, tone Tone, bucket map[string]int) Block {
	a, b := s.sideA(), s.sideB()
	if bucket[a]+bucket[b] == 0 {
		tone = ToneMuted
	}
	return styled(tone, icon, title, kv(a, bucket[a]), kv(b, bucket[b]))
}

// rememberPair records the endpoint names of the active two-way pair so
// later apply events without a dst field can still be attributed.
func (s *Session) rememberPair(ev *Event) {
	if a := ev.Str("a"); a != "" {
		s.pairA = a
	}
	if b := ev.Str("b"); b != "" {
		s.pairB = b
	}
}

func (s *Session) sideA() string {
	if s.pairA != "" {
		return s.pairA
	}
	return "A"
}

func (s *Session) sideB() string {
	if s.pairB != "" {
		return s.pairB
	}
	return "B"
}

func endpointLabels(ev *Event) (string, string) {
	a, b := ev.Str("a"), ev.Str("b")
	if a == "" && b == "" {
		a, b = ev.Str("src"), ev.Str("dst")
	}
	return a, b
}
