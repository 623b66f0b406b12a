// Package formatter turns the CrossWatch backend's streaming sync log into
// discrete, classified blocks for incremental rendering.
//
// The stream interleaves plain text lines with JSON event objects at
// arbitrary chunk boundaries. Processing is layered:
//
//  1. [Tokenizer] : splits chunks into balanced JSON tokens and plain lines,
//     carrying a residual buffer across calls
//  2. [ParseEvent] / event dispatch: renders recognized sync lifecycle
//     events, tracking a pending run id and running add/remove counters
//  3. [ClassifyLine] : regex heuristics that drop noise, reformat known
//     milestones and pass everything else through
//  4. squelch counter: suppresses a bounded number of continuation lines
//     after summarized header blocks ("providers:", "features:")
//
// All cross-token state lives on a [Session]; one session per log view.
// Output is the structured [Block] type, converted to HTML or terminal
// markup by the render package. Malformed input never raises an error: bad
// JSON falls through to line handling, unknown events drop silently and
// missing numeric fields coerce to zero.
package formatter
