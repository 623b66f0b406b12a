package formatter

import "strings"

// Options configures a [Session].
type Options struct {
	Debug     bool         // raw passthrough, bypasses all formatting and filtering
	BufferCap int          // residual buffer cap in bytes; 0 means DefaultBufferCap
	Observer  func(*Event) // invoked for every recognized structured event
}

// Session owns all cross-token state for one log view: the tokenizer's
// residual buffer, the pending run id, the running add/remove counters and
// the squelch counter. Independent views must own independent sessions;
// sharing one would corrupt counters and squelch state. A Session is not
// safe for concurrent use.
type Session struct {
	tok      *Tokenizer
	debug    bool
	observer func(*Event)

	pendingRunID string
	counters     tallies
	squelch      int
	pairA, pairB string
}

// tallies accumulates applied add/remove counts per provider between
// two:apply completions and the two:done flush.
type tallies struct {
	add    map[string]int
	remove map[string]int
}

func newTallies() tallies {
	return tallies{add: map[string]int{}, remove: map[string]int{}}
}

func (t *tallies) reset() {
	clear(t.add)
	clear(t.remove)
}

// NewSession creates a formatter session with fresh state.
func NewSession(opts Options) *Session {
	tok := NewTokenizer()
	if opts.BufferCap > 0 {
		tok.SetBufferCap(opts.BufferCap)
	}
	return &Session{
		tok:      tok,
		debug:    opts.Debug,
		observer: opts.Observer,
		counters: newTallies(),
	}
}

// SetDebug toggles raw passthrough mid-stream. Used by the TUI debug key.
func (s *Session) SetDebug(debug bool) { s.debug = debug }

// Debug reports whether the session is in raw passthrough mode.
func (s *Session) Debug() bool { return s.debug }

// PendingRunID returns the run id captured from plain text and not yet
// consumed by a run:start event.
func (s *Session) PendingRunID() string { return s.pendingRunID }

// Feed consumes one inbound chunk and returns the rendered blocks for every
// complete token it produced, in arrival order.
func (s *Session) Feed(chunk string) []Block {
	var blocks []Block
	for _, token := range s.tok.Feed(chunk) {
		blocks = append(blocks, s.RenderToken(token)...)
	}
	return blocks
}

// RenderToken renders a single token. Structured events take priority; a
// token that looks like JSON but fails to parse (or carries an unknown
// discriminator) is dropped rather than shown raw; everything else goes
// through the squelch machine and the plain-line filter.
func (s *Session) RenderToken(token string) []Block {
	if s.debug {
		return []Block{raw(token)}
	}

	if ev, ok := ParseEvent(token); ok {
		if s.observer != nil {
			s.observer(ev)
		}
		return s.formatEvent(ev)
	}

	if strings.HasPrefix(strings.TrimSpace(token), "{") {
		return nil
	}

	return s.renderLine(token)
}

// Flush drains the residual buffer at end of stream, rendering any trailing
// partial line. Live views never flush.
func (s *Session) Flush() []Block {
	var blocks []Block
	for _, token := range s.tok.Flush() {
		blocks = append(blocks, s.RenderToken(token)...)
	}
	return blocks
}

// Buffered returns the bytes currently held back by the tokenizer.
func (s *Session) Buffered() int { return s.tok.Buffered() }

// Dropped returns the bytes discarded by buffer cap enforcement.
func (s *Session) Dropped() int { return s.tok.Dropped() }
