package terminal

import (
	"fmt"
	"strconv"
)

// EventType distinguishes input event categories
type EventType uint8

const (
	EventNone   EventType = iota // Ignorable input consumed by the decoder
	EventKey                     // Key press, repeat or release
	EventMouse                   // Mouse report
	EventResize                  // In-band window size report
	EventPaste                   // Bracketed paste content
)

// String returns human-readable type name
func (t EventType) String() string {
	switch t {
	case EventKey:
		return "key"
	case EventMouse:
		return "mouse"
	case EventResize:
		return "resize"
	case EventPaste:
		return "paste"
	default:
		return "none"
	}
}

// Event represents a structured terminal input event.
// Events are plain values; fields irrelevant to Type are zero.
type Event struct {
	Type      EventType
	Key       Key
	Rune      rune
	Modifiers Modifier
	Kind      KeyKind // For EventKey

	Width  int // Columns, for EventResize
	Height int // Rows, for EventResize

	// Mouse event fields, 0-indexed cell coordinates
	MouseX      int
	MouseY      int
	MouseBtn    MouseButton
	MouseAction MouseAction

	Text string // For EventPaste
}

// String renders the event for logs, e.g. "key ctrl+up", "key 'a'", "mouse Left Press @3,4"
func (e Event) String() string {
	switch e.Type {
	case EventKey:
		name := KeyName(e.Key)
		if e.Key == KeyRune {
			name = strconv.QuoteRune(e.Rune)
		}
		s := "key " + e.Modifiers.String() + name
		if e.Kind != KeyPress {
			s += " (" + e.Kind.String() + ")"
		}
		return s
	case EventMouse:
		return fmt.Sprintf("mouse %s%s %s @%d,%d", e.Modifiers, e.MouseBtn, e.MouseAction, e.MouseX, e.MouseY)
	case EventResize:
		return fmt.Sprintf("resize %dx%d", e.Width, e.Height)
	case EventPaste:
		return fmt.Sprintf("paste %d bytes", len(e.Text))
	default:
		return "none"
	}
}

func keyEvent(k Key, mod Modifier) Event {
	return Event{Type: EventKey, Key: k, Modifiers: mod}
}

func runeEvent(r rune, mod Modifier) Event {
	return Event{Type: EventKey, Key: KeyRune, Rune: r, Modifiers: mod}
}
