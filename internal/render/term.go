package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/cwlog/internal/formatter"
)

// Palette is a simple stylesheet of named [lipgloss.Style] fields, one per
// block tone.
type Palette struct {
	info   lipgloss.Style
	start  lipgloss.Style
	ok     lipgloss.Style
	add    lipgloss.Style
	remove lipgloss.Style
	muted  lipgloss.Style
	meta   lipgloss.Style
}

// DefaultPalette mirrors the panel stylesheet's tone colors.
func DefaultPalette() *Palette {
	return NewPalette("#7D56F4", "#04B575", "#04B575", "#FFA500", "#FF0000", "#626262")
}

func NewPalette(info, start, ok, add, remove, muted string) *Palette {
	return &Palette{
		info:   newStyle(info),
		start:  newBold(start),
		ok:     newBold(ok),
		add:    newStyle(add),
		remove: newStyle(remove),
		muted:  newStyle(muted),
		meta:   newEm(muted),
	}
}

func newStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func newBold(fg string) lipgloss.Style {
	return newStyle(fg).Bold(true)
}

func newEm(fg string) lipgloss.Style {
	return newStyle(fg).Italic(true)
}

func (p *Palette) style(t formatter.Tone) lipgloss.Style {
	switch t {
	case formatter.ToneStart:
		return p.start
	case formatter.ToneOK:
		return p.ok
	case formatter.ToneAdd:
		return p.add
	case formatter.ToneRemove:
		return p.remove
	case formatter.ToneMuted:
		return p.muted
	}
	return p.info
}

// Term renders one block as a single styled terminal line.
func (p *Palette) Term(b formatter.Block) string {
	switch b.Kind {
	case formatter.KindRaw:
		return b.Text
	case formatter.KindLine:
		return p.style(b.Tone).Render(b.Text)
	}

	var sb strings.Builder
	if b.Icon != "" {
		sb.WriteString(b.Icon)
		sb.WriteString(" ")
	}
	sb.WriteString(p.style(b.Tone).Render(b.Title))
	if len(b.Meta) > 0 {
		pairs := make([]string, len(b.Meta))
		for i, pair := range b.Meta {
			pairs[i] = fmt.Sprintf("%s=%s", pair.Key, pair.Value)
		}
		sb.WriteString("  ")
		sb.WriteString(p.meta.Render(strings.Join(pairs, " ")))
	}
	return sb.String()
}
