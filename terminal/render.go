package terminal

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/mattn/go-runewidth"
)

// ClearType selects the screen area erased by ClearRegion
type ClearType uint8

const (
	ClearAll          ClearType = iota // Whole screen
	ClearAfterCursor                   // Cursor to end of screen
	ClearBeforeCursor                  // Start of screen to cursor
	ClearCurrentLine                   // Whole cursor line
	ClearUntilNewLine                  // Cursor to end of line
)

// Renderer writes cell grids to the host as ANSI output, diffing against
// the previously flushed frame. Output is accumulated and forwarded to
// Host.Write as one payload per operation.
type Renderer struct {
	mu        sync.Mutex
	host      Host
	relay     *Relay
	colorMode ColorMode
	buf       bytes.Buffer

	front  []Cell
	width  int
	height int

	cursorX     int
	cursorY     int
	cursorValid bool

	// Style state for coalescing
	lastFg    RGB
	lastBg    RGB
	lastAttr  Attr
	lastValid bool
}

// NewRenderer creates a renderer writing to host; size and cursor queries
// go through relay
func NewRenderer(host Host, relay *Relay, mode ColorMode) *Renderer {
	return &Renderer{
		host:      host,
		relay:     relay,
		colorMode: mode,
	}
}

// ColorMode returns the color encoding used for RGB cells
func (r *Renderer) ColorMode() ColorMode {
	return r.colorMode
}

// Size reports the host window size
func (r *Renderer) Size() (WindowSize, error) {
	return r.relay.WindowSize()
}

// CursorPosition reports the host cursor
func (r *Renderer) CursorPosition() (x, y int, err error) {
	return r.relay.CursorPosition()
}

// resize updates buffer dimensions and forces a full redraw
func (r *Renderer) resize(width, height int) {
	size := width * height
	if cap(r.front) < size {
		r.front = make([]Cell, size)
	} else {
		r.front = r.front[:size]
	}
	r.width = width
	r.height = height
	r.invalidate()
}

func (r *Renderer) invalidate() {
	clear(r.front)
	r.lastValid = false
	r.cursorValid = false
}

// Invalidate forces the next Flush to redraw every cell
func (r *Renderer) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidate()
}

// Flush writes the changed cells of a width*height grid
func (r *Renderer) Flush(cells []Cell, width, height int) error {
	if width < 0 || height < 0 || len(cells) < width*height {
		return fmt.Errorf("%w: %dx%d with %d cells", ErrInvalidGrid, width, height, len(cells))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if width != r.width || height != r.height {
		r.resize(width, height)
	}

	b := &r.buf
	for y := 0; y < height; y++ {
		rowStart := y * width
		x := 0

		for x < width {
			idx := rowStart + x
			if cellEqual(cells[idx], r.front[idx]) {
				x++
				continue
			}

			// Position cursor once for this dirty region
			if !r.cursorValid || x != r.cursorX || y != r.cursorY {
				if r.cursorValid && y == r.cursorY && x > r.cursorX {
					writeCursorForward(b, x-r.cursorX)
				} else {
					writeCursorPos(b, x, y)
				}
				r.cursorX, r.cursorY = x, y
				r.cursorValid = true
			}

			// Write contiguous dirty cells, emitting style only when changed
			for x < width {
				cidx := rowStart + x
				c := cells[cidx]
				if cellEqual(c, r.front[cidx]) {
					break
				}

				r.writeStyle(c.Fg, c.Bg, c.Attrs)

				ch := c.Rune
				if ch == 0 {
					ch = ' '
				}
				b.WriteRune(ch)
				r.front[cidx] = c
				x++

				w := max(runewidth.RuneWidth(ch), 1)
				r.cursorX += w
				// The glyph covers the next cell
				if w == 2 && x < width {
					r.front[rowStart+x] = cells[rowStart+x]
					x++
				}
			}
		}
	}

	if r.buf.Len() == 0 {
		return nil
	}
	b.Write(csiSGR0)
	r.lastValid = false
	r.trackCursor()
	return r.flush()
}

// writeStyle emits a single combined SGR sequence when style changes
func (r *Renderer) writeStyle(fg, bg RGB, attr Attr) {
	fgChanged := !r.lastValid || fg != r.lastFg || attr&AttrFg256 != r.lastAttr&AttrFg256
	bgChanged := !r.lastValid || bg != r.lastBg || attr&AttrBg256 != r.lastAttr&AttrBg256
	attrChanged := !r.lastValid || attr&AttrStyle != r.lastAttr&AttrStyle

	if !fgChanged && !bgChanged && !attrChanged {
		return
	}

	b := &r.buf
	b.Write(csi)
	if attrChanged {
		// Attribute change requires reset, then full restatement
		b.WriteByte('0')
		for _, s := range sgrStyle {
			if attr&s.attr != 0 {
				b.WriteByte(';')
				b.WriteByte(s.code)
			}
		}
		fgChanged, bgChanged = true, true
		b.WriteByte(';')
	}
	if fgChanged {
		writeColorParams(b, 38, fg, attr&AttrFg256 != 0, r.colorMode)
	}
	if bgChanged {
		if fgChanged {
			b.WriteByte(';')
		}
		writeColorParams(b, 48, bg, attr&AttrBg256 != 0, r.colorMode)
	}
	b.WriteByte('m')

	r.lastFg, r.lastBg, r.lastAttr = fg, bg, attr
	r.lastValid = true
}

// Clear erases the screen with the given background
func (r *Renderer) Clear(bg RGB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := &r.buf
	b.Write(csiSGR0)
	b.Write(csi)
	writeColorParams(b, 48, bg, false, r.colorMode)
	b.WriteByte('m')
	b.Write(csiClear)

	r.lastValid = false
	r.cursorX, r.cursorY = 0, 0
	r.cursorValid = true
	for i := range r.front {
		r.front[i] = Cell{Rune: ' ', Bg: bg}
	}
	r.trackCursor()
	return r.flush()
}

// ClearRegion erases part of the screen with the default background.
// The cursor does not move; the next Flush redraws every cell.
func (r *Renderer) ClearRegion(ct ClearType) error {
	if int(ct) >= len(csiErase) {
		return fmt.Errorf("terminal: unknown clear type %d", ct)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf.Write(csiSGR0)
	r.buf.Write(csiErase[ct])
	r.invalidate()
	return r.flush()
}

// AppendLines writes n newlines below the cursor, scrolling when at the
// bottom. The tracked cursor and the previous frame are discarded.
func (r *Renderer) AppendLines(n int) error {
	if n <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for range n {
		r.buf.WriteByte('\n')
	}
	r.invalidate()
	return r.flush()
}

// SetCursorPosition moves the cursor to 0-indexed x, y
func (r *Renderer) SetCursorPosition(x, y int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	writeCursorPos(&r.buf, x, y)
	r.cursorX, r.cursorY = x, y
	r.cursorValid = true
	r.trackCursor()
	return r.flush()
}

// ShowCursor makes the cursor visible
func (r *Renderer) ShowCursor() error {
	return r.writeRaw(csiCursorShow)
}

// HideCursor makes the cursor invisible
func (r *Renderer) HideCursor() error {
	return r.writeRaw(csiCursorHide)
}

// EnableMouse toggles SGR mouse reporting with drag tracking
func (r *Renderer) EnableMouse(on bool) error {
	if on {
		return r.writeRaw(modeMouseOn)
	}
	return r.writeRaw(modeMouseOff)
}

// EnableBracketedPaste toggles paste framing
func (r *Renderer) EnableBracketedPaste(on bool) error {
	if on {
		return r.writeRaw(modeBracketedPasteOn)
	}
	return r.writeRaw(modeBracketedPasteOff)
}

// Write forwards p unchanged; the tracked cursor becomes unknown
func (r *Renderer) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf.Write(p)
	r.cursorValid = false
	r.lastValid = false
	if err := r.flush(); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (r *Renderer) writeRaw(seq []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Write(seq)
	return r.flush()
}

// trackCursor reports the cursor to hosts that cannot query it
func (r *Renderer) trackCursor() {
	if t, ok := r.host.(cursorTracker); ok && r.cursorValid {
		t.trackCursor(r.cursorX, r.cursorY)
	}
}

// flush hands buffered output to the host as one payload
func (r *Renderer) flush() error {
	if r.buf.Len() == 0 {
		return nil
	}
	err := r.host.Write(r.buf.Bytes())
	r.buf.Reset()
	return err
}
