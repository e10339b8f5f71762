package terminal

// Attr represents text attributes
type Attr uint8

const (
	AttrNone      Attr = 0
	AttrBold      Attr = 1 << 0
	AttrDim       Attr = 1 << 1
	AttrItalic    Attr = 1 << 2
	AttrUnderline Attr = 1 << 3
	AttrBlink     Attr = 1 << 4
	AttrReverse   Attr = 1 << 5
	AttrFg256     Attr = 1 << 6 // Fg.R is 256-color palette index
	AttrBg256     Attr = 1 << 7 // Bg.R is 256-color palette index
)

// AttrStyle masks only the style bits (excludes color mode flags)
const AttrStyle Attr = AttrBold | AttrDim | AttrItalic | AttrUnderline | AttrBlink | AttrReverse

// Cell is one grid position handed to Renderer.Flush.
// Rune 0 renders as a space.
type Cell struct {
	Rune  rune
	Fg    RGB
	Bg    RGB
	Attrs Attr
}

// cellEqual compares two cells; foreground is irrelevant for blank cells
func cellEqual(a, b Cell) bool {
	if a.Rune != b.Rune || a.Attrs != b.Attrs || a.Bg != b.Bg {
		return false
	}
	return a.Rune == 0 || a.Fg == b.Fg
}
