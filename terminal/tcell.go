package terminal

import (
	"context"
	"errors"
	"io"

	"github.com/gdamore/tcell/v2"
)

// Colors substituted for tcell.ColorDefault when converting styles
var (
	DefaultFg = RGB{255, 255, 255}
	DefaultBg = RGB{0, 0, 0}
)

var tcellKeys = map[Key]tcell.Key{
	KeyEscape:    tcell.KeyEsc,
	KeyEnter:     tcell.KeyEnter,
	KeyTab:       tcell.KeyTab,
	KeyBacktab:   tcell.KeyBacktab,
	KeyBackspace: tcell.KeyBackspace2,
	KeyDelete:    tcell.KeyDelete,

	KeyUp:       tcell.KeyUp,
	KeyDown:     tcell.KeyDown,
	KeyLeft:     tcell.KeyLeft,
	KeyRight:    tcell.KeyRight,
	KeyHome:     tcell.KeyHome,
	KeyEnd:      tcell.KeyEnd,
	KeyPageUp:   tcell.KeyPgUp,
	KeyPageDown: tcell.KeyPgDn,
	KeyInsert:   tcell.KeyInsert,

	KeyCtrlSpace:        tcell.KeyCtrlSpace,
	KeyCtrlBackslash:    tcell.KeyCtrlBackslash,
	KeyCtrlBracketLeft:  tcell.KeyCtrlLeftSq,
	KeyCtrlBracketRight: tcell.KeyCtrlRightSq,
	KeyCtrlCaret:        tcell.KeyCtrlCarat,
	KeyCtrlUnderscore:   tcell.KeyCtrlUnderscore,
}

// tcellKey maps a Key, including the contiguous F1-F12 and Ctrl+letter ranges
func tcellKey(k Key) (tcell.Key, bool) {
	switch {
	case k >= KeyF1 && k <= KeyF12:
		return tcell.KeyF1 + tcell.Key(k-KeyF1), true
	case k >= KeyCtrlA && k <= KeyCtrlZ:
		return tcell.KeyCtrlA + tcell.Key(k-KeyCtrlA), true
	}
	tk, ok := tcellKeys[k]
	return tk, ok
}

func (m Modifier) tcell() tcell.ModMask {
	var mm tcell.ModMask
	if m&ModShift != 0 {
		mm |= tcell.ModShift
	}
	if m&ModAlt != 0 {
		mm |= tcell.ModAlt
	}
	if m&ModCtrl != 0 {
		mm |= tcell.ModCtrl
	}
	if m&ModMeta != 0 {
		mm |= tcell.ModMeta
	}
	return mm
}

func (b MouseButton) tcell() tcell.ButtonMask {
	switch b {
	case MouseBtnLeft:
		return tcell.Button1
	case MouseBtnRight:
		return tcell.Button2
	case MouseBtnMiddle:
		return tcell.Button3
	case MouseBtnForward:
		return tcell.Button4
	case MouseBtnBack:
		return tcell.Button5
	case MouseBtnWheelUp:
		return tcell.WheelUp
	case MouseBtnWheelDown:
		return tcell.WheelDown
	case MouseBtnWheelLeft:
		return tcell.WheelLeft
	case MouseBtnWheelRight:
		return tcell.WheelRight
	}
	return tcell.ButtonNone
}

// Tcell converts a single event for tcell-based consumers. It returns nil
// for events tcell cannot express: EventNone, key releases, unmapped keys
// and pastes (see TcellEvents).
func (e Event) Tcell() tcell.Event {
	switch e.Type {
	case EventKey:
		if e.Kind == KeyRelease {
			return nil
		}
		if e.Key == KeyRune {
			return tcell.NewEventKey(tcell.KeyRune, e.Rune, e.Modifiers.tcell())
		}
		tk, ok := tcellKey(e.Key)
		if !ok {
			return nil
		}
		return tcell.NewEventKey(tk, 0, e.Modifiers.tcell())

	case EventMouse:
		// tcell reports held buttons; release and plain motion carry none
		btn := e.MouseBtn.tcell()
		if e.MouseAction == MouseActionRelease || e.MouseAction == MouseActionMove {
			btn = tcell.ButtonNone
		}
		return tcell.NewEventMouse(e.MouseX, e.MouseY, btn, e.Modifiers.tcell())

	case EventResize:
		return tcell.NewEventResize(e.Width, e.Height)
	}
	return nil
}

// TcellEvents converts an event into zero or more tcell events. A paste
// becomes start marker, one key event per rune, end marker, as tcell
// delivers bracketed paste.
func TcellEvents(e Event) []tcell.Event {
	if e.Type == EventPaste {
		evs := make([]tcell.Event, 0, len(e.Text)+2)
		evs = append(evs, tcell.NewEventPaste(true))
		for _, r := range e.Text {
			evs = append(evs, tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
		}
		return append(evs, tcell.NewEventPaste(false))
	}
	if ev := e.Tcell(); ev != nil {
		return []tcell.Event{ev}
	}
	return nil
}

// PumpTcell feeds converted stream events into ch until the stream ends
// (nil), ctx is done, or a non-malformed error occurs
func PumpTcell(ctx context.Context, s *Stream, ch chan<- tcell.Event) error {
	for {
		ev, err := s.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, ErrMalformed):
			continue
		case err != nil:
			return err
		}

		for _, tev := range TcellEvents(ev) {
			select {
			case ch <- tev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// CellFromTcell builds a Cell from a tcell rune and style so tcell-style
// drawing code can render through a Renderer
func CellFromTcell(r rune, st tcell.Style) Cell {
	fg, bg, attrs := st.Decompose()
	return Cell{
		Rune:  r,
		Fg:    rgbFromTcell(fg, DefaultFg),
		Bg:    rgbFromTcell(bg, DefaultBg),
		Attrs: attrFromTcell(attrs),
	}
}

func rgbFromTcell(c tcell.Color, def RGB) RGB {
	r, g, b := c.RGB()
	if r < 0 {
		return def
	}
	return RGB{uint8(r), uint8(g), uint8(b)}
}

func attrFromTcell(mask tcell.AttrMask) Attr {
	var a Attr
	if mask&tcell.AttrBold != 0 {
		a |= AttrBold
	}
	if mask&tcell.AttrDim != 0 {
		a |= AttrDim
	}
	if mask&tcell.AttrItalic != 0 {
		a |= AttrItalic
	}
	if mask&tcell.AttrUnderline != 0 {
		a |= AttrUnderline
	}
	if mask&tcell.AttrBlink != 0 {
		a |= AttrBlink
	}
	if mask&tcell.AttrReverse != 0 {
		a |= AttrReverse
	}
	return a
}
