package formatter

import "fmt"

// BlockKind discriminates the three output shapes a [Session] can produce.
type BlockKind int

const (
	KindBlock BlockKind = iota // styled block with icon, title and metadata
	KindLine                   // plain text line
	KindRaw                    // unformatted passthrough (debug mode)
)

// Tone selects the visual treatment of a block. Renderers map tones to CSS
// classes or terminal styles; the formatter never emits markup itself.
type Tone int

const (
	ToneInfo Tone = iota
	ToneStart
	ToneOK
	ToneAdd
	ToneRemove
	ToneMuted
)

// KV is a single metadata pair attached to a block, rendered as "key=value".
type KV struct {
	Key   string
	Value string
}

// Block is the structured output of the formatter: one renderable unit of the
// log view. [KindBlock] uses Icon, Title, Meta and Tone; [KindLine] and
// [KindRaw] carry only Text.
type Block struct {
	Kind  BlockKind
	Tone  Tone
	Icon  string
	Title string
	Meta  []KV
	Text  string
}

func styled(tone Tone, icon, title string, meta ...KV) Block {
	return Block{Kind: KindBlock, Tone: tone, Icon: icon, Title: title, Meta: meta}
}

func line(text string) Block {
	return Block{Kind: KindLine, Text: text}
}

func raw(text string) Block {
	return Block{Kind: KindRaw, Text: text}
}

func kv(key string, value any) KV {
	return KV{Key: key, Value: fmt.Sprintf("%v", value)}
}
