package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = newChrome("#7D56F4", "#FF0000", "#626262")

// chrome holds the viewer's frame styles; block tones come from the render
// package's palette.
type chrome struct {
	title lipgloss.Style
	err   lipgloss.Style
	help  lipgloss.Style
}

func newChrome(t, e, h string) *chrome {
	return &chrome{
		title: lipgloss.NewStyle().Foreground(lipgloss.Color(t)).Bold(true),
		err:   lipgloss.NewStyle().Foreground(lipgloss.Color(e)).Bold(true),
		help:  lipgloss.NewStyle().Foreground(lipgloss.Color(h)).Italic(true),
	}
}
