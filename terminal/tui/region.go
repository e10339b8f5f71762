// Package tui provides minimal drawing helpers over a terminal.Cell buffer
// for the bridge's demo and diagnostic binaries.
package tui

import (
	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/termbridge/terminal"
)

// LineType specifies the horizontal rule character
type LineType uint8

const (
	LineSingle LineType = iota // ─
	LineDouble                 // ═
	LineHeavy                  // ━
)

var ruleChars = [...]rune{
	LineSingle: '─',
	LineDouble: '═',
	LineHeavy:  '━',
}

// Region represents a rectangular area within a cell buffer
// All coordinates are relative to the region's origin
type Region struct {
	Cells  []terminal.Cell
	TotalW int // Total width of the underlying cell buffer
	X, Y   int // Absolute position in cell buffer
	W, H   int // Region dimensions
}

// NewRegion creates a region referencing a cell slice with bounds
func NewRegion(cells []terminal.Cell, totalW, x, y, w, h int) Region {
	return Region{Cells: cells, TotalW: totalW, X: x, Y: y, W: w, H: h}
}

// Sub returns a nested region with coordinates relative to parent, clipped to parent bounds
func (r Region) Sub(x, y, w, h int) Region {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	w = max(min(w, r.W-x), 0)
	h = max(min(h, r.H-y), 0)
	return Region{Cells: r.Cells, TotalW: r.TotalW, X: r.X + x, Y: r.Y + y, W: w, H: h}
}

// Cell sets a single cell with bounds checking
func (r Region) Cell(x, y int, ch rune, fg, bg terminal.RGB, attr terminal.Attr) {
	if x < 0 || x >= r.W || y < 0 || y >= r.H {
		return
	}
	absX := r.X + x
	if uint(absX) >= uint(r.TotalW) {
		return
	}
	idx := (r.Y+y)*r.TotalW + absX
	if uint(idx) < uint(len(r.Cells)) {
		r.Cells[idx] = terminal.Cell{Rune: ch, Fg: fg, Bg: bg, Attrs: attr}
	}
}

// Fill fills entire region with background color
func (r Region) Fill(bg terminal.RGB) {
	for y := 0; y < r.H; y++ {
		for x := 0; x < r.W; x++ {
			r.Cell(x, y, ' ', terminal.RGB{}, bg, terminal.AttrNone)
		}
	}
}

// Text renders text at position and truncates at the region edge.
// Wide runes take two columns; one that would straddle the edge is dropped.
func (r Region) Text(x, y int, s string, fg, bg terminal.RGB, attr terminal.Attr) {
	if y < 0 || y >= r.H {
		return
	}
	col := x
	for _, ch := range s {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		if col+w > r.W {
			break
		}
		if col >= 0 {
			r.Cell(col, y, ch, fg, bg, attr)
			if w == 2 {
				r.Cell(col+1, y, 0, fg, bg, attr)
			}
		}
		col += w
	}
}

// TextCenter renders text centered on row
func (r Region) TextCenter(y int, s string, fg, bg terminal.RGB, attr terminal.Attr) {
	x := (r.W - runewidth.StringWidth(s)) / 2
	r.Text(x, y, s, fg, bg, attr)
}

// HLine draws horizontal line across region width at row y
func (r Region) HLine(y int, line LineType, fg terminal.RGB) {
	if y < 0 || y >= r.H {
		return
	}
	if int(line) >= len(ruleChars) {
		line = LineSingle
	}
	ch := ruleChars[line]
	for x := 0; x < r.W; x++ {
		r.Cell(x, y, ch, fg, terminal.RGB{}, terminal.AttrNone)
	}
}

// Log is a fixed-size ring of recent lines
type Log struct {
	lines []string
	max   int
}

// NewLog creates a log keeping the last n lines
func NewLog(n int) *Log {
	return &Log{lines: make([]string, 0, n), max: n}
}

// Add appends a line, evicting the oldest when full
func (l *Log) Add(s string) {
	if len(l.lines) >= l.max {
		copy(l.lines, l.lines[1:])
		l.lines = l.lines[:l.max-1]
	}
	l.lines = append(l.lines, s)
}

// Lines returns the retained lines, oldest first
func (l *Log) Lines() []string {
	return l.lines
}

// Draw renders the newest lines that fit into r, oldest at the top
func (l *Log) Draw(r Region, fg, bg terminal.RGB) {
	lines := l.lines
	if len(lines) > r.H {
		lines = lines[len(lines)-r.H:]
	}
	for i, s := range lines {
		r.Text(0, i, s, fg, bg, terminal.AttrNone)
	}
}
