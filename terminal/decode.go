package terminal

import (
	"bytes"
	"strconv"
	"unicode/utf8"
)

// Bracketed paste markers
var (
	pasteStartSeq = []byte("\x1b[200~")
	pasteEndSeq   = []byte("\x1b[201~")
)

// maxCSILen bounds a CSI sequence scan; longer runs are treated as noise
const maxCSILen = 32

// Decode parses one event from the head of buf.
//
// Results:
//   - ErrIncomplete, n == 0: buf is a prefix of a longer sequence
//   - nil error, Event.Type == EventNone: n bytes of ignorable input consumed
//   - nil error: one complete event spanning n bytes
//   - *MalformedError: invalid character data; n bytes should be skipped
//
// Decode keeps no state between calls.
func Decode(buf []byte) (Event, int, error) {
	if len(buf) == 0 {
		return Event{}, 0, ErrIncomplete
	}

	b := buf[0]
	switch {
	case b >= 0x20 && b < 0x7f:
		// Fast path: printable ASCII
		return runeEvent(rune(b), ModNone), 1, nil
	case b == 0x1b:
		return decodeEscape(buf)
	case b < 0x20:
		return keyEvent(controlKeys[b], ModNone), 1, nil
	case b == 0x7f:
		return keyEvent(KeyBackspace, ModNone), 1, nil
	}

	r, n, err := decodeUTF8(buf)
	if err != nil {
		return Event{}, n, err
	}
	return runeEvent(r, ModNone), n, nil
}

// resolveBoundary interprets an incomplete tail that a host only delivers as a
// whole keystroke: lone ESC, ESC ESC, ESC [ and ESC O.
func resolveBoundary(tail []byte) (Event, int, bool) {
	if len(tail) == 0 || tail[0] != 0x1b {
		return Event{}, 0, false
	}
	if len(tail) == 1 {
		return keyEvent(KeyEscape, ModNone), 1, true
	}
	if len(tail) == 2 {
		switch tail[1] {
		case 0x1b:
			return keyEvent(KeyEscape, ModAlt), 2, true
		case '[', 'O':
			return runeEvent(rune(tail[1]), ModAlt), 2, true
		}
	}
	return Event{}, 0, false
}

// utf8SeqLen returns expected UTF-8 sequence length from start byte, 0 if invalid
func utf8SeqLen(b byte) int {
	if b < 0x80 {
		return 1
	}
	if b&0xe0 == 0xc0 {
		return 2
	}
	if b&0xf0 == 0xe0 {
		return 3
	}
	if b&0xf8 == 0xf0 {
		return 4
	}
	return 0
}

// decodeUTF8 decodes one multi-byte rune, distinguishing truncation from corruption
func decodeUTF8(buf []byte) (rune, int, error) {
	seqLen := utf8SeqLen(buf[0])
	if seqLen == 0 {
		return 0, 1, &MalformedError{Byte: buf[0]}
	}
	if len(buf) < seqLen {
		for _, c := range buf[1:] {
			if c&0xc0 != 0x80 {
				return 0, 1, &MalformedError{Byte: buf[0]}
			}
		}
		return 0, 0, ErrIncomplete
	}
	r, size := utf8.DecodeRune(buf[:seqLen])
	if r == utf8.RuneError && size <= 1 {
		return 0, 1, &MalformedError{Byte: buf[0]}
	}
	return r, size, nil
}

// decodeEscape handles everything introduced by ESC
func decodeEscape(buf []byte) (Event, int, error) {
	if len(buf) < 2 {
		return Event{}, 0, ErrIncomplete
	}

	c := buf[1]
	switch {
	case c == '[':
		return decodeCSI(buf)
	case c == 'O':
		return decodeSS3(buf)
	case c == 0x1b:
		return decodeDoubleEscape(buf)
	case c < 0x20:
		// Alt+Control character
		return keyEvent(controlKeys[c], ModAlt), 2, nil
	case c == 0x7f:
		return keyEvent(KeyBackspace, ModAlt), 2, nil
	case c < 0x7f:
		// Alt+printable
		return runeEvent(rune(c), ModAlt), 2, nil
	}

	r, n, err := decodeUTF8(buf[1:])
	if err == ErrIncomplete {
		return Event{}, 0, err
	}
	if err != nil {
		// Bare Escape; the invalid byte is reported on its own
		return keyEvent(KeyEscape, ModNone), 1, nil
	}
	return runeEvent(r, ModAlt), 1 + n, nil
}

// decodeDoubleEscape handles ESC ESC, which is either Alt+Escape or an
// Alt-prefixed cursor sequence (ESC ESC [ A, sent for Option+arrow on macOS)
func decodeDoubleEscape(buf []byte) (Event, int, error) {
	if len(buf) < 3 {
		return Event{}, 0, ErrIncomplete
	}
	if buf[2] != '[' && buf[2] != 'O' {
		return keyEvent(KeyEscape, ModAlt), 2, nil
	}

	ev, n, err := decodeEscape(buf[1:])
	if err != nil {
		return Event{}, 0, err
	}
	if ev.Type != EventKey {
		return keyEvent(KeyEscape, ModAlt), 2, nil
	}
	ev.Modifiers |= ModAlt
	return ev, 1 + n, nil
}

// scanCSI locates the final byte of a CSI sequence.
// Returns the sequence length, 0 when more data is needed, -1 when malformed.
func scanCSI(buf []byte) int {
	for i := 2; i < len(buf); i++ {
		if i >= maxCSILen {
			return -1
		}
		b := buf[i]
		switch {
		case b >= 0x40 && b <= 0x7e:
			return i + 1
		case b >= 0x20 && b <= 0x3f:
			// Parameter or intermediate byte
		default:
			return -1
		}
	}
	if len(buf) >= maxCSILen {
		return -1
	}
	return 0
}

// decodeCSI parses ESC [ sequences
func decodeCSI(buf []byte) (Event, int, error) {
	if len(buf) < 3 {
		return Event{}, 0, ErrIncomplete
	}

	switch buf[2] {
	case '<':
		return decodeSGRMouse(buf)
	case 'M':
		return decodeX10Mouse(buf)
	}

	n := scanCSI(buf)
	switch {
	case n == 0:
		return Event{}, 0, ErrIncomplete
	case n < 0:
		// Broken introducer: skip ESC and resync on the next byte
		return Event{}, 1, nil
	}

	if bytes.HasPrefix(buf, pasteStartSeq) {
		return decodePaste(buf)
	}

	return interpretCSI(buf[2:n-1], buf[n-1]), n, nil
}

// csiParam is one ';'-separated parameter with its ':' subparameters; empty when omitted
type csiParam []int

// parseParams splits CSI parameter bytes. Private-marker and intermediate
// forms are rejected so they are swallowed as unknown sequences.
func parseParams(b []byte) ([]csiParam, bool) {
	if len(b) == 0 {
		return nil, true
	}
	if b[0] > ';' {
		return nil, false
	}

	fields := bytes.Split(b, []byte{';'})
	params := make([]csiParam, 0, len(fields))
	for _, field := range fields {
		var p csiParam
		if len(field) > 0 {
			for _, sub := range bytes.Split(field, []byte{':'}) {
				v := 0
				if len(sub) > 0 {
					var err error
					if v, err = strconv.Atoi(string(sub)); err != nil {
						return nil, false
					}
				}
				p = append(p, v)
			}
		}
		params = append(params, p)
	}
	return params, true
}

// param returns parameter i, or def when absent
func param(ps []csiParam, i, def int) int {
	if i >= len(ps) || len(ps[i]) == 0 {
		return def
	}
	return ps[i][0]
}

// subParam returns subparameter j of parameter i, or def when absent
func subParam(ps []csiParam, i, j, def int) int {
	if i >= len(ps) || j >= len(ps[i]) {
		return def
	}
	return ps[i][j]
}

// modKind decodes "mod[:event]" as used by xterm and the kitty protocol
func modKind(ps []csiParam, i int) (Modifier, KeyKind) {
	mod := xtermModifier(param(ps, i, 1))
	switch subParam(ps, i, 1, 1) {
	case 2:
		return mod, KeyRepeat
	case 3:
		return mod, KeyRelease
	}
	return mod, KeyPress
}

// interpretCSI maps a complete CSI sequence to an event; unknown yields EventNone
func interpretCSI(params []byte, final byte) Event {
	ps, ok := parseParams(params)
	if !ok {
		return Event{}
	}

	switch final {
	case 'Z':
		return keyEvent(KeyBacktab, ModShift)

	case '~':
		code := param(ps, 0, 0)
		k, ok := tildeKeys[code]
		if !ok || len(ps) > 2 {
			// Includes a stray paste end marker (201)
			return Event{}
		}
		mod, kind := modKind(ps, 1)
		return Event{Type: EventKey, Key: k, Modifiers: mod, Kind: kind}

	case 'u':
		return decodeKitty(ps)

	case 't':
		// Window size report: CSI 8 ; rows ; cols t
		if param(ps, 0, 0) == 8 && len(ps) == 3 {
			return Event{Type: EventResize, Width: param(ps, 2, 0), Height: param(ps, 1, 0)}
		}
		return Event{}
	}

	if k, ok := csiFinalKeys[final]; ok && len(ps) <= 2 {
		mod, kind := modKind(ps, 1)
		return Event{Type: EventKey, Key: k, Modifiers: mod, Kind: kind}
	}
	return Event{}
}

// decodeKitty handles CSI code[:shifted[:base]] ; mods[:event] u
func decodeKitty(ps []csiParam) Event {
	code := param(ps, 0, 0)
	if code <= 0 {
		return Event{}
	}
	mod, kind := modKind(ps, 1)
	ev := Event{Type: EventKey, Modifiers: mod, Kind: kind}

	if k, ok := kittyKeys[code]; ok {
		ev.Key = k
		return ev
	}

	// Lone modifier keys and unmapped functional keys live in the private use area
	if code >= 0xe000 && code <= 0xf8ff {
		return Event{}
	}

	// Ctrl+letter matches the legacy control-byte encoding
	if mod&ModCtrl != 0 && code >= 'a' && code <= 'z' {
		ev.Key = KeyCtrlA + Key(code-'a')
		ev.Modifiers &^= ModCtrl
		return ev
	}

	r := rune(code)
	if mod&ModShift != 0 {
		if shifted := subParam(ps, 0, 1, 0); shifted > 0 {
			r = rune(shifted)
		} else if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
	}
	if r < 0x20 || !utf8.ValidRune(r) {
		return Event{}
	}
	ev.Key = KeyRune
	ev.Rune = r
	return ev
}

// decodeSS3 parses ESC O sequences
func decodeSS3(buf []byte) (Event, int, error) {
	if len(buf) < 3 {
		return Event{}, 0, ErrIncomplete
	}
	c := buf[2]
	if c < 0x20 || c > 0x7e {
		return Event{}, 1, nil
	}
	e, ok := ss3Keys[c]
	if !ok {
		// Unknown SS3 - consume to prevent garbage
		return Event{}, 3, nil
	}
	if e.key == KeyRune {
		return runeEvent(e.rune, ModNone), 3, nil
	}
	return keyEvent(e.key, ModNone), 3, nil
}

// decodeSGRMouse parses ESC [ < Btn ; X ; Y M/m
func decodeSGRMouse(buf []byte) (Event, int, error) {
	end := 3
	for ; end < len(buf); end++ {
		b := buf[end]
		if b == 'M' || b == 'm' {
			break
		}
		if (b < '0' || b > '9') && b != ';' || end >= maxCSILen {
			return Event{}, 1, nil
		}
	}
	if end >= len(buf) {
		return Event{}, 0, ErrIncomplete
	}

	btn, x, y, ok := parseSGRParams(buf[3:end])
	if !ok {
		return Event{}, end + 1, nil
	}

	button, action, mod := mouseFromButtonCode(btn, buf[end] == 'm')
	return Event{
		Type:        EventMouse,
		MouseX:      max(x-1, 0), // Convert to 0-indexed
		MouseY:      max(y-1, 0),
		MouseBtn:    button,
		MouseAction: action,
		Modifiers:   mod,
	}, end + 1, nil
}

// parseSGRParams extracts btn, x, y from "Btn;X;Y" format
func parseSGRParams(data []byte) (btn, x, y int, ok bool) {
	state := 0 // 0=btn, 1=x, 2=y
	val := 0

	for _, b := range data {
		if b == ';' {
			switch state {
			case 0:
				btn = val
			case 1:
				x = val
			}
			state++
			val = 0
			if state > 2 {
				return 0, 0, 0, false
			}
			continue
		}
		val = val*10 + int(b-'0')
		if val > 9999 { // Sanity limit
			return 0, 0, 0, false
		}
	}

	if state != 2 {
		return 0, 0, 0, false
	}
	return btn, x, val, true
}

// decodeX10Mouse parses ESC [ M Cb Cx Cy with each value offset by 32
func decodeX10Mouse(buf []byte) (Event, int, error) {
	if len(buf) < 6 {
		return Event{}, 0, ErrIncomplete
	}
	if buf[3] < 32 || buf[4] < 33 || buf[5] < 33 {
		return Event{}, 1, nil
	}

	button, action, mod := mouseFromButtonCode(int(buf[3])-32, false)
	return Event{
		Type:        EventMouse,
		MouseX:      int(buf[4]) - 33,
		MouseY:      int(buf[5]) - 33,
		MouseBtn:    button,
		MouseAction: action,
		Modifiers:   mod,
	}, 6, nil
}

// decodePaste collects everything between the paste markers into one event
func decodePaste(buf []byte) (Event, int, error) {
	body := buf[len(pasteStartSeq):]
	idx := bytes.Index(body, pasteEndSeq)
	if idx < 0 {
		return Event{}, 0, ErrIncomplete
	}

	n := len(pasteStartSeq) + idx + len(pasteEndSeq)
	text := body[:idx]
	if off := invalidUTF8Offset(text); off >= 0 {
		return Event{}, n, &MalformedError{Offset: len(pasteStartSeq) + off, Byte: text[off]}
	}
	return Event{Type: EventPaste, Text: string(text)}, n, nil
}

// invalidUTF8Offset returns the offset of the first invalid byte, or -1
func invalidUTF8Offset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
