package formatter

import "strings"

// DefaultBufferCap bounds the residual buffer carried between chunks. A
// permanently unterminated JSON span would otherwise grow without limit as
// more input arrives behind it.
const DefaultBufferCap = 1 << 20

// lineMarkers are milestone prefixes that must start their own line even when
// the upstream stream batches them mid-string without a separator.
var lineMarkers = []string{"> SYNC start:", "[i]", "Exit code", "✔", "⚠"}

// Tokenize splits prev+chunk into complete tokens and a residual buffer.
//
// A token is either a balanced JSON object literal (braces tracked with
// string-literal and escape state) or a trimmed, non-empty plain text line.
// Tokens are returned in arrival order, interleaving preserved. The residual
// buffer holds an unterminated JSON span or a trailing partial line, verbatim,
// for the next call.
func Tokenize(prev, chunk string) ([]string, string) {
	s := prev + chunk
	var tokens []string

	i := 0
	for i < len(s) {
		if s[i] == '{' {
			end, ok := scanObject(s, i)
			if !ok {
				return tokens, s[i:]
			}
			tokens = append(tokens, s[i:end])
			i = end
			continue
		}

		next := strings.IndexByte(s[i:], '{')
		if next < 0 {
			head, rest := cutPartialLine(splitMarkers(s[i:]))
			tokens = append(tokens, plainLines(head)...)
			return tokens, rest
		}

		tokens = append(tokens, plainLines(splitMarkers(s[i:i+next]))...)
		i += next
	}

	return tokens, ""
}

// scanObject scans a JSON object literal starting at s[start] (which must be
// '{') and returns the index one past the matching close brace. Braces inside
// string literals do not affect depth; a backslash escapes the next character.
func scanObject(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}

	return 0, false
}

// splitMarkers inserts a line break before each known marker so milestone
// lines always start fresh regardless of upstream batching.
func splitMarkers(span string) string {
	for _, marker := range lineMarkers {
		span = strings.ReplaceAll(span, marker, "\n"+marker)
	}
	return span
}

// cutPartialLine splits a trailing plain span at its last newline. Everything
// after it may still be a partial line and stays buffered.
func cutPartialLine(span string) (head, rest string) {
	idx := strings.LastIndexByte(span, '\n')
	if idx < 0 {
		return "", span
	}
	return span[:idx+1], span[idx+1:]
}

// plainLines normalizes CRLF, splits on newlines and returns trimmed,
// non-empty lines. Dropping empties collapses repeated separators.
func plainLines(span string) []string {
	span = strings.ReplaceAll(span, "\r\n", "\n")
	span = strings.ReplaceAll(span, "\r", "\n")

	var out []string
	for _, ln := range strings.Split(span, "\n") {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

// Tokenizer carries the residual buffer across chunk boundaries and enforces
// the buffer cap.
type Tokenizer struct {
	rest    string
	cap     int
	dropped int
}

// NewTokenizer creates a Tokenizer with [DefaultBufferCap].
func NewTokenizer() *Tokenizer {
	return &Tokenizer{cap: DefaultBufferCap}
}

// SetBufferCap overrides the residual buffer cap. Zero or negative disables
// the cap entirely.
func (t *Tokenizer) SetBufferCap(n int) { t.cap = n }

// Feed tokenizes one inbound chunk, carrying the residual buffer forward.
// When the buffer exceeds the cap its oldest prefix is discarded and counted
// in [Tokenizer.Dropped]; malformed input never surfaces as an error.
func (t *Tokenizer) Feed(chunk string) []string {
	tokens, rest := Tokenize(t.rest, chunk)
	if t.cap > 0 && len(rest) > t.cap {
		t.dropped += len(rest) - t.cap
		rest = rest[len(rest)-t.cap:]
	}
	t.rest = rest
	return tokens
}

// Flush drains the residual buffer as plain lines. Used at end of stream for
// inputs without a trailing newline; a live view never calls it.
func (t *Tokenizer) Flush() []string {
	rest := t.rest
	t.rest = ""
	return plainLines(splitMarkers(rest))
}

// Buffered returns the number of bytes currently held back.
func (t *Tokenizer) Buffered() int { return len(t.rest) }

// Dropped returns the total bytes discarded by buffer cap enforcement.
func (t *Tokenizer) Dropped() int { return t.dropped }
