// package render converts formatter blocks to HTML fragments or styled terminal text
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/desertthunder/cwlog/internal/formatter"
)

// toneClasses maps each tone to the CSS class suffix used by the panel
// stylesheet. Hosts style the classes; fragments carry no inline styling.
var toneClasses = map[formatter.Tone]string{
	formatter.ToneInfo:   "info",
	formatter.ToneStart:  "start",
	formatter.ToneOK:     "ok",
	formatter.ToneAdd:    "add",
	formatter.ToneRemove: "remove",
	formatter.ToneMuted:  "muted",
}

// HTML renders one block as an HTML fragment. All block content passes
// through escaping; the only markup in the output is the fragment's own
// structure.
func HTML(b formatter.Block) string {
	switch b.Kind {
	case formatter.KindRaw:
		return fmt.Sprintf(`<div class="cw-raw">%s</div>`, html.EscapeString(b.Text))

	case formatter.KindLine:
		return fmt.Sprintf(`<div class="cw-line cw-%s">%s</div>`,
			toneClass(b.Tone), html.EscapeString(b.Text))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<div class="cw-block cw-%s">`, toneClass(b.Tone))
	if b.Icon != "" {
		fmt.Fprintf(&sb, `<span class="cw-icon">%s</span>`, html.EscapeString(b.Icon))
	}
	fmt.Fprintf(&sb, `<span class="cw-title">%s</span>`, html.EscapeString(b.Title))
	if len(b.Meta) > 0 {
		sb.WriteString(`<span class="cw-meta">`)
		for i, pair := range b.Meta {
			if i > 0 {
				sb.WriteString(" · ")
			}
			fmt.Fprintf(&sb, "%s=%s", html.EscapeString(pair.Key), html.EscapeString(pair.Value))
		}
		sb.WriteString(`</span>`)
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

func toneClass(t formatter.Tone) string {
	if c, ok := toneClasses[t]; ok {
		return c
	}
	return "info"
}
