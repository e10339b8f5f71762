package terminal

import (
	"errors"
	"testing"
)

// TestDecode verifies single-event decoding across the supported encodings
func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Event
		n     int
	}{
		{"Printable", "a", runeEvent('a', ModNone), 1},
		{"PrintableFirstOnly", "ab", runeEvent('a', ModNone), 1},
		{"Enter", "\r", keyEvent(KeyEnter, ModNone), 1},
		{"Tab", "\t", keyEvent(KeyTab, ModNone), 1},
		{"Backspace", "\x7f", keyEvent(KeyBackspace, ModNone), 1},
		{"CtrlA", "\x01", keyEvent(KeyCtrlA, ModNone), 1},
		{"CtrlSpace", "\x00", keyEvent(KeyCtrlSpace, ModNone), 1},
		{"UTF8", "é", runeEvent('é', ModNone), 2},
		{"UTF8Wide", "世", runeEvent('世', ModNone), 3},

		{"CursorUp", "\x1b[A", keyEvent(KeyUp, ModNone), 3},
		{"CtrlRight", "\x1b[1;5C", keyEvent(KeyRight, ModCtrl), 6},
		{"ShiftUp", "\x1b[1;2A", keyEvent(KeyUp, ModShift), 6},
		{"CtrlAltShiftEnd", "\x1b[1;8F", keyEvent(KeyEnd, ModShift|ModAlt|ModCtrl), 6},
		{"SS3F1", "\x1bOP", keyEvent(KeyF1, ModNone), 3},
		{"SS3Home", "\x1bOH", keyEvent(KeyHome, ModNone), 3},
		{"SS3Keypad", "\x1bOj", runeEvent('*', ModNone), 3},
		{"Delete", "\x1b[3~", keyEvent(KeyDelete, ModNone), 4},
		{"AltPageUp", "\x1b[5;3~", keyEvent(KeyPageUp, ModAlt), 6},
		{"F5", "\x1b[15~", keyEvent(KeyF5, ModNone), 5},
		{"F12", "\x1b[24~", keyEvent(KeyF12, ModNone), 5},
		{"Backtab", "\x1b[Z", keyEvent(KeyBacktab, ModShift), 3},
		{"AltRune", "\x1ba", runeEvent('a', ModAlt), 2},
		{"AltUTF8", "\x1bé", runeEvent('é', ModAlt), 3},
		{"AltCtrlA", "\x1b\x01", keyEvent(KeyCtrlA, ModAlt), 2},
		{"AltBackspace", "\x1b\x7f", keyEvent(KeyBackspace, ModAlt), 2},
		{"AltUpDoubleEscape", "\x1b\x1b[A", keyEvent(KeyUp, ModAlt), 4},
		{"AltEscape", "\x1b\x1bx", keyEvent(KeyEscape, ModAlt), 2},

		{"KittyCtrlA", "\x1b[97;5u", keyEvent(KeyCtrlA, ModNone), 7},
		{"KittyShiftA", "\x1b[97;2u", runeEvent('A', ModShift), 7},
		{"KittyShiftedAlternate", "\x1b[49:33;2u", runeEvent('!', ModShift), 10},
		{"KittyEnter", "\x1b[13u", keyEvent(KeyEnter, ModNone), 5},
		{"KittyRelease", "\x1b[97;1:3u", Event{Type: EventKey, Key: KeyRune, Rune: 'a', Kind: KeyRelease}, 9},
		{"KittyRepeat", "\x1b[57364;1:2u", Event{Type: EventKey, Key: KeyF1, Kind: KeyRepeat}, 12},
		{"KittyArrowRelease", "\x1b[1;5:3A", Event{Type: EventKey, Key: KeyUp, Modifiers: ModCtrl, Kind: KeyRelease}, 8},

		{"SGRPress", "\x1b[<0;10;5M", Event{Type: EventMouse, MouseX: 9, MouseY: 4, MouseBtn: MouseBtnLeft, MouseAction: MouseActionPress}, 10},
		{"SGRRelease", "\x1b[<0;10;5m", Event{Type: EventMouse, MouseX: 9, MouseY: 4, MouseBtn: MouseBtnLeft, MouseAction: MouseActionRelease}, 10},
		{"SGRRightCtrl", "\x1b[<18;1;1M", Event{Type: EventMouse, MouseBtn: MouseBtnRight, MouseAction: MouseActionPress, Modifiers: ModCtrl}, 10},
		{"SGRWheel", "\x1b[<64;1;1M", Event{Type: EventMouse, MouseBtn: MouseBtnWheelUp, MouseAction: MouseActionPress}, 10},
		{"SGRDrag", "\x1b[<32;3;4M", Event{Type: EventMouse, MouseX: 2, MouseY: 3, MouseBtn: MouseBtnLeft, MouseAction: MouseActionDrag}, 10},
		{"SGRMove", "\x1b[<35;3;4M", Event{Type: EventMouse, MouseX: 2, MouseY: 3, MouseAction: MouseActionMove}, 10},
		{"SGRBack", "\x1b[<128;1;1M", Event{Type: EventMouse, MouseBtn: MouseBtnBack, MouseAction: MouseActionPress}, 11},
		{"X10Press", "\x1b[M !!", Event{Type: EventMouse, MouseBtn: MouseBtnLeft, MouseAction: MouseActionPress}, 6},
		{"X10Release", "\x1b[M#+%", Event{Type: EventMouse, MouseX: 10, MouseY: 4, MouseAction: MouseActionRelease}, 6},

		{"Paste", "\x1b[200~hello\x1b[201~", Event{Type: EventPaste, Text: "hello"}, 17},
		{"PasteEmpty", "\x1b[200~\x1b[201~", Event{Type: EventPaste}, 12},
		{"PasteWithEscapes", "\x1b[200~a\x1b[Ab\x1b[201~", Event{Type: EventPaste, Text: "a\x1b[Ab"}, 17},
		{"Resize", "\x1b[8;24;80t", Event{Type: EventResize, Width: 80, Height: 24}, 10},

		{"UnknownTilde", "\x1b[99~", Event{}, 5},
		{"PrivateReply", "\x1b[?1;2c", Event{}, 7},
		{"StrayPasteEnd", "\x1b[201~", Event{}, 6},
		{"UnknownSS3", "\x1bOZ", Event{}, 3},
		{"KittyLoneModifier", "\x1b[57441;2u", Event{}, 10},
		{"BrokenCSI", "\x1b[\x01", Event{}, 1},
		{"BrokenSGR", "\x1b[<0;x", Event{}, 1},
		{"BrokenX10", "\x1b[M\x01!!", Event{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, n, err := Decode([]byte(tt.input))
			if err != nil {
				t.Fatalf("Decode(%q) unexpected error: %v", tt.input, err)
			}
			if n != tt.n {
				t.Errorf("Decode(%q) consumed %d bytes, expected %d", tt.input, n, tt.n)
			}
			if ev != tt.want {
				t.Errorf("Decode(%q) = %v (%+v), expected %v (%+v)", tt.input, ev, ev, tt.want, tt.want)
			}
		})
	}
}

// TestDecodeIncomplete verifies prefixes of longer sequences request more data
func TestDecodeIncomplete(t *testing.T) {
	inputs := []string{
		"",
		"\x1b",
		"\x1b[",
		"\x1b[1",
		"\x1b[1;5",
		"\x1bO",
		"\x1b\x1b",
		"\x1b\x1b[",
		"\x1b[<0;10",
		"\x1b[M !",
		"\x1b[200~partial",
		"\x1b[200~partial\x1b[201",
		"\xc3",
		"\xe4\xb8",
		"\x1b\xc3",
	}

	for _, in := range inputs {
		ev, n, err := Decode([]byte(in))
		if !errors.Is(err, ErrIncomplete) {
			t.Errorf("Decode(%q) error = %v, expected ErrIncomplete", in, err)
		}
		if n != 0 || ev.Type != EventNone {
			t.Errorf("Decode(%q) = %v, %d; expected no event and 0 bytes", in, ev, n)
		}
	}
}

// TestDecodeMalformed verifies invalid UTF-8 is reported with the offending byte
func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		n      int
		offset int
		b      byte
	}{
		{"Continuation", "\x80", 1, 0, 0x80},
		{"InvalidLead", "\xff", 1, 0, 0xff},
		{"Overlong", "\xc0\xaf", 1, 0, 0xc0},
		{"TruncatedThenASCII", "\xe4a", 1, 0, 0xe4},
		{"PasteBody", "\x1b[200~ok\xfe\x1b[201~", 15, 8, 0xfe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, n, err := Decode([]byte(tt.input))
			var me *MalformedError
			if !errors.As(err, &me) {
				t.Fatalf("Decode(%q) error = %v, expected *MalformedError", tt.input, err)
			}
			if !errors.Is(err, ErrMalformed) {
				t.Error("Expected errors.Is(err, ErrMalformed)")
			}
			if n != tt.n {
				t.Errorf("Expected %d bytes consumed, got %d", tt.n, n)
			}
			if me.Offset != tt.offset || me.Byte != tt.b {
				t.Errorf("Expected offset %d byte 0x%02x, got offset %d byte 0x%02x", tt.offset, tt.b, me.Offset, me.Byte)
			}
		})
	}
}

// TestDecodeEscapeThenInvalid verifies ESC before a bad byte yields a bare Escape
func TestDecodeEscapeThenInvalid(t *testing.T) {
	ev, n, err := Decode([]byte("\x1b\xff"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ev != keyEvent(KeyEscape, ModNone) || n != 1 {
		t.Errorf("Expected Escape consuming 1 byte, got %v consuming %d", ev, n)
	}
}

// TestResolveBoundary verifies tails a host only sends as whole keystrokes
func TestResolveBoundary(t *testing.T) {
	tests := []struct {
		input string
		want  Event
		ok    bool
	}{
		{"\x1b", keyEvent(KeyEscape, ModNone), true},
		{"\x1b\x1b", keyEvent(KeyEscape, ModAlt), true},
		{"\x1b[", runeEvent('[', ModAlt), true},
		{"\x1bO", runeEvent('O', ModAlt), true},
		{"\x1b[1", Event{}, false},
		{"\xc3", Event{}, false},
		{"", Event{}, false},
	}

	for _, tt := range tests {
		ev, n, ok := resolveBoundary([]byte(tt.input))
		if ok != tt.ok || ev != tt.want {
			t.Errorf("resolveBoundary(%q) = %v, %v; expected %v, %v", tt.input, ev, ok, tt.want, tt.ok)
		}
		if ok && n != len(tt.input) {
			t.Errorf("resolveBoundary(%q) consumed %d, expected %d", tt.input, n, len(tt.input))
		}
	}
}

// TestXtermModifier verifies the 1+bitmask modifier parameter
func TestXtermModifier(t *testing.T) {
	tests := []struct {
		param int
		want  Modifier
	}{
		{0, ModNone},
		{1, ModNone},
		{2, ModShift},
		{3, ModAlt},
		{5, ModCtrl},
		{9, ModMeta},
		{16, ModShift | ModAlt | ModCtrl | ModMeta},
	}

	for _, tt := range tests {
		if got := xtermModifier(tt.param); got != tt.want {
			t.Errorf("xtermModifier(%d) = %v, expected %v", tt.param, got, tt.want)
		}
	}
}
