package terminal

import (
	"bytes"
	"strconv"
)

// Pre-allocated ANSI sequence fragments
var (
	csi           = []byte("\x1b[")
	csiSGR0       = []byte("\x1b[0m")
	csiClear      = []byte("\x1b[2J\x1b[H")
	csiCursorHide = []byte("\x1b[?25l")
	csiCursorShow = []byte("\x1b[?25h")

	// Erase sequences indexed by ClearType
	csiErase = [...][]byte{
		ClearAll:          []byte("\x1b[2J"),
		ClearAfterCursor:  []byte("\x1b[J"),
		ClearBeforeCursor: []byte("\x1b[1J"),
		ClearCurrentLine:  []byte("\x1b[2K"),
		ClearUntilNewLine: []byte("\x1b[K"),
	}

	// Color prefixes, followed by parameters and 'm'
	csiFg256 = []byte("\x1b[38;5;")
	csiBg256 = []byte("\x1b[48;5;")
	csiFgRGB = []byte("\x1b[38;2;")
	csiBgRGB = []byte("\x1b[48;2;")
)

// Input protocol modes requested from the host terminal
var (
	modeMouseOn           = []byte("\x1b[?1000h\x1b[?1002h\x1b[?1006h")
	modeMouseOff          = []byte("\x1b[?1006l\x1b[?1002l\x1b[?1000l")
	modeBracketedPasteOn  = []byte("\x1b[?2004h")
	modeBracketedPasteOff = []byte("\x1b[?2004l")
)

// sgrStyle lists style bits with their SGR codes in emission order
var sgrStyle = [...]struct {
	attr Attr
	code byte
}{
	{AttrBold, '1'},
	{AttrDim, '2'},
	{AttrItalic, '3'},
	{AttrUnderline, '4'},
	{AttrBlink, '5'},
	{AttrReverse, '7'},
}

// writeInt appends a non-negative decimal without allocating
func writeInt(b *bytes.Buffer, n int) {
	var scratch [20]byte
	b.Write(strconv.AppendInt(scratch[:0], int64(max(n, 0)), 10))
}

// writeCursorPos writes cursor positioning sequence (0-indexed input)
func writeCursorPos(b *bytes.Buffer, x, y int) {
	b.Write(csi)
	writeInt(b, y+1)
	b.WriteByte(';')
	writeInt(b, x+1)
	b.WriteByte('H')
}

// writeCursorForward writes cursor forward N positions
func writeCursorForward(b *bytes.Buffer, n int) {
	if n <= 0 {
		return
	}
	b.Write(csi)
	if n > 1 {
		writeInt(b, n)
	}
	b.WriteByte('C')
}

// writeColorParams writes "38;..." or "48;..." without CSI prefix or 'm'.
// base is 38 for foreground, 48 for background.
func writeColorParams(b *bytes.Buffer, base int, c RGB, palette bool, mode ColorMode) {
	writeInt(b, base)
	switch {
	case palette:
		b.WriteString(";5;")
		writeInt(b, int(c.R))
	case mode == ColorModeTrueColor:
		b.WriteString(";2;")
		writeInt(b, int(c.R))
		b.WriteByte(';')
		writeInt(b, int(c.G))
		b.WriteByte(';')
		writeInt(b, int(c.B))
	default:
		b.WriteString(";5;")
		writeInt(b, int(RGBTo256(c)))
	}
}
