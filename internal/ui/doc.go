// Package ui implements an interactive terminal log viewer using bubbletea's Elm architecture.
//
// The [Model] wraps a [viewport.Model] showing rendered log blocks as they
// arrive from a source.Follower channel, with each channel read turned into
// a message command.
//
// Keyboard controls: j/k scroll, g/G jump to top/bottom, f toggles follow
// mode (auto-scroll on new output), d toggles raw debug passthrough for the
// underlying formatter session, q quits. Contextual help renders via
// charmbracelet/bubbles/help.
package ui
