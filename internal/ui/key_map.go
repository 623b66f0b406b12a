package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the log viewer.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	top    key.Binding
	bottom key.Binding
	follow key.Binding
	debug  key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		top:    key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		bottom: key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		follow: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "follow")),
		debug:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "debug")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.follow, k.debug, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.top, k.bottom},
		{k.follow, k.debug, k.quit},
	}
}
