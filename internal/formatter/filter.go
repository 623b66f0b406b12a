package formatter

import (
	"regexp"
	"strings"
)

// LineKind tags the classification of a plain line by [ClassifyLine].
type LineKind int

const (
	LinePass          LineKind = iota // render as plain text
	LineDrop                          // suppress entirely
	LineOrchStart                     // orchestrator run announcement, captures run_id
	LineRunID                         // bare run_id capture, suppressed
	LineDoneTotals                    // "Done. Total added/removed" milestone
	LineSchedState                    // scheduler state change
	LineSchedRefresh                  // scheduler restart confirmation
	LineExitCode                      // process exit code
)

// LineMatch is the tagged result of classifying one plain line.
type LineMatch struct {
	Kind    LineKind
	RunID   string
	Added   int
	Removed int
	State   string
	Enabled bool
	Squelch int // continuation lines to suppress when this line is dropped
}

var (
	reOrchStart     = regexp.MustCompile(`^(?:>\s*)?SYNC start:\s+orchestrator pairs\b`)
	reRunID         = regexp.MustCompile(`\brun_id=([\w.-]+)`)
	reDoneTotals    = regexp.MustCompile(`^Done\.\s*Total added:\s*(\d+),\s*Total removed:\s*(\d+)`)
	reSchedState    = regexp.MustCompile(`^scheduler\s+(\S+)\s+\((enabled|disabled)\)`)
	reSchedRefresh  = regexp.MustCompile(`^scheduler:\s*started\s*&\s*refreshed`)
	reExitCode      = regexp.MustCompile(`^Exit code\b`)
	reProgressMark  = regexp.MustCompile(`^\[\d+/\d+\]`)
	reKeyColon      = regexp.MustCompile(`^[\w.$-]+:(\s|$)`)
	reSyncStartDupe = regexp.MustCompile(`^(?:>\s*)?SYNC start:`)
	reTriggered     = regexp.MustCompile(`^(?:\[i\]\s*)?Triggered sync run\b`)
)

// noiseRule drops a known-noisy diagnostic line shape, optionally arming the
// squelch counter to swallow its continuation lines.
type noiseRule struct {
	match   func(string) bool
	squelch int
}

var noiseRules = []noiseRule{
	{match: reSyncStartDupe.MatchString},
	{match: reTriggered.MatchString},
	{match: prefixRule("orchestrator module:")},
	{match: prefixRule("providers:"), squelch: 2},
	{match: prefixRule("features:"), squelch: 3},
	{match: reProgressMark.MatchString},
	{match: prefixRule("feature=")},
}

func prefixRule(prefix string) func(string) bool {
	return func(line string) bool { return strings.HasPrefix(line, prefix) }
}

// ClassifyLine applies the plain-line rules in order, first match wins. In
// debug mode the noise drops are bypassed so every line falls through to the
// milestone rules or passthrough.
func ClassifyLine(line string, debug bool) LineMatch {
	if reOrchStart.MatchString(line) {
		m := LineMatch{Kind: LineOrchStart}
		if id := reRunID.FindStringSubmatch(line); id != nil {
			m.RunID = id[1]
		}
		return m
	}

	if id := reRunID.FindStringSubmatch(line); id != nil {
		return LineMatch{Kind: LineRunID, RunID: id[1]}
	}

	if !debug {
		for _, rule := range noiseRules {
			if rule.match(line) {
				return LineMatch{Kind: LineDrop, Squelch: rule.squelch}
			}
		}
	}

	if m := reDoneTotals.FindStringSubmatch(line); m != nil {
		return LineMatch{Kind: LineDoneTotals, Added: coerceInt(m[1]), Removed: coerceInt(m[2])}
	}

	if m := reSchedState.FindStringSubmatch(line); m != nil {
		return LineMatch{Kind: LineSchedState, State: m[1], Enabled: m[2] == "enabled"}
	}

	if reSchedRefresh.MatchString(line) {
		return LineMatch{Kind: LineSchedRefresh}
	}

	if reExitCode.MatchString(line) {
		return LineMatch{Kind: LineExitCode}
	}

	return LineMatch{Kind: LinePass}
}

// looksLikeContinuation reports whether a line reads as part of an already
// summarized header block: bracketed or key: shaped content, indented
// carry-over, or a dangling close bracket.
func looksLikeContinuation(line string) bool {
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, "[") || strings.HasPrefix(line, "{") || strings.HasPrefix(line, "  ") {
		return true
	}
	if strings.HasSuffix(line, "]") || strings.HasSuffix(line, "}") {
		return true
	}
	return reKeyColon.MatchString(line)
}

// renderLine runs one plain token through the squelch machine and the line
// filter, producing at most one block.
func (s *Session) renderLine(text string) []Block {
	if !s.debug && s.squelch > 0 {
		if looksLikeContinuation(text) {
			s.squelch--
			return nil
		}
		s.squelch = 0
	}

	m := ClassifyLine(text, s.debug)
	switch m.Kind {
	case LineDrop:
		if m.Squelch > 0 {
			s.squelch = m.Squelch
		}
		return nil

	case LineOrchStart:
		s.pendingRunID = m.RunID
		return []Block{styled(ToneStart, "🚀", "Sync run starting", kv("cmd", "orchestrator pairs"))}

	case LineRunID:
		s.pendingRunID = m.RunID
		return nil

	case LineDoneTotals:
		return []Block{styled(ToneOK, "✅", "Sync complete",
			kv("added", m.Added), kv("removed", m.Removed))}

	case LineSchedState:
		tone := ToneStart
		mode := "enabled"
		if !m.Enabled {
			tone = ToneRemove
			mode = "disabled"
		}
		return []Block{styled(tone, "⏱", "Scheduler "+m.State, kv("mode", mode))}

	case LineSchedRefresh:
		return []Block{styled(ToneStart, "⏱", "Scheduler restarted", kv("mode", "refreshed"))}

	case LineExitCode:
		return []Block{{Kind: KindLine, Tone: ToneMuted, Text: text}}
	}

	return []Block{line(text)}
}
