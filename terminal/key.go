package terminal

// Key represents a parsed input key
type Key uint16

// Key constants - designed for expansion
const (
	KeyNone Key = iota
	KeyRune     // Printable character (check Event.Rune)

	// Control keys
	KeyEscape
	KeyEnter
	KeyTab
	KeyBacktab // Shift+Tab
	KeyBackspace
	KeyDelete

	// Navigation
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	// Ctrl+letter (Ctrl+A = 0x01, Ctrl+Z = 0x1A)
	KeyCtrlA
	KeyCtrlB
	KeyCtrlC
	KeyCtrlD
	KeyCtrlE
	KeyCtrlF
	KeyCtrlG
	KeyCtrlH // Only via kitty; 0x08 decodes as Backspace
	KeyCtrlI // Only via kitty; 0x09 decodes as Tab
	KeyCtrlJ // Only via kitty; 0x0a decodes as Enter
	KeyCtrlK
	KeyCtrlL
	KeyCtrlM // Only via kitty; 0x0d decodes as Enter
	KeyCtrlN
	KeyCtrlO
	KeyCtrlP
	KeyCtrlQ
	KeyCtrlR
	KeyCtrlS
	KeyCtrlT
	KeyCtrlU
	KeyCtrlV
	KeyCtrlW
	KeyCtrlX
	KeyCtrlY
	KeyCtrlZ

	// Ctrl+special
	KeyCtrlSpace
	KeyCtrlBackslash
	KeyCtrlBracketLeft
	KeyCtrlBracketRight
	KeyCtrlCaret
	KeyCtrlUnderscore
)

// Modifier flags
type Modifier uint8

const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << 0
	ModAlt   Modifier = 1 << 1
	ModCtrl  Modifier = 1 << 2
	ModMeta  Modifier = 1 << 3
)

// KeyKind distinguishes press, auto-repeat and release for key events.
// Only the kitty keyboard protocol reports anything other than KeyPress.
type KeyKind uint8

const (
	KeyPress KeyKind = iota
	KeyRepeat
	KeyRelease
)

// String returns human-readable kind name
func (k KeyKind) String() string {
	switch k {
	case KeyRepeat:
		return "repeat"
	case KeyRelease:
		return "release"
	default:
		return "press"
	}
}

// xtermModifier decodes the xterm modifier parameter (1 + bitmask)
func xtermModifier(param int) Modifier {
	if param < 2 {
		return ModNone
	}
	bits := param - 1
	var m Modifier
	if bits&1 != 0 {
		m |= ModShift
	}
	if bits&2 != 0 {
		m |= ModAlt
	}
	if bits&4 != 0 {
		m |= ModCtrl
	}
	if bits&8 != 0 {
		m |= ModMeta
	}
	return m
}

// csiFinalKeys maps CSI final bytes to keys for "CSI [1;mod] X" sequences
var csiFinalKeys = map[byte]Key{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'H': KeyHome,
	'F': KeyEnd,
	'P': KeyF1,
	'Q': KeyF2,
	'R': KeyF3,
	'S': KeyF4,
}

// tildeKeys maps the first parameter of "CSI n [;mod] ~" sequences
var tildeKeys = map[int]Key{
	1:  KeyHome,
	2:  KeyInsert,
	3:  KeyDelete,
	4:  KeyEnd,
	5:  KeyPageUp,
	6:  KeyPageDown,
	7:  KeyHome,
	8:  KeyEnd,
	11: KeyF1,
	12: KeyF2,
	13: KeyF3,
	14: KeyF4,
	15: KeyF5,
	17: KeyF6,
	18: KeyF7,
	19: KeyF8,
	20: KeyF9,
	21: KeyF10,
	23: KeyF11,
	24: KeyF12,
}

// ss3Entry is an SS3 (ESC O x) mapping; keypad entries carry a rune
type ss3Entry struct {
	key  Key
	rune rune
}

var ss3Keys = map[byte]ss3Entry{
	'A': {KeyUp, 0},
	'B': {KeyDown, 0},
	'C': {KeyRight, 0},
	'D': {KeyLeft, 0},
	'H': {KeyHome, 0},
	'F': {KeyEnd, 0},
	'P': {KeyF1, 0},
	'Q': {KeyF2, 0},
	'R': {KeyF3, 0},
	'S': {KeyF4, 0},

	// Numeric keypad (application mode)
	'M': {KeyEnter, 0},
	'X': {KeyRune, '='},
	'j': {KeyRune, '*'},
	'k': {KeyRune, '+'},
	'l': {KeyRune, ','},
	'm': {KeyRune, '-'},
	'n': {KeyRune, '.'},
	'o': {KeyRune, '/'},
	'p': {KeyRune, '0'},
	'q': {KeyRune, '1'},
	'r': {KeyRune, '2'},
	's': {KeyRune, '3'},
	't': {KeyRune, '4'},
	'u': {KeyRune, '5'},
	'v': {KeyRune, '6'},
	'w': {KeyRune, '7'},
	'x': {KeyRune, '8'},
	'y': {KeyRune, '9'},
}

// kittyKeys maps kitty keyboard protocol key codes that are not plain runes
var kittyKeys = map[int]Key{
	9:   KeyTab,
	13:  KeyEnter,
	27:  KeyEscape,
	127: KeyBackspace,

	57364: KeyF1,
	57365: KeyF2,
	57366: KeyF3,
	57367: KeyF4,
	57368: KeyF5,
	57369: KeyF6,
	57370: KeyF7,
	57371: KeyF8,
	57372: KeyF9,
	57373: KeyF10,
	57374: KeyF11,
	57375: KeyF12,

	57414: KeyEnter, // KP_Enter
	57417: KeyUp,
	57418: KeyDown,
	57419: KeyLeft,
	57420: KeyRight,
	57421: KeyPageUp,
	57422: KeyPageDown,
	57423: KeyHome,
	57424: KeyEnd,
	57425: KeyInsert,
	57426: KeyDelete,
}

// controlKeys maps C0 control bytes to keys
var controlKeys = [0x20]Key{
	0x00: KeyCtrlSpace,
	0x01: KeyCtrlA,
	0x02: KeyCtrlB,
	0x03: KeyCtrlC,
	0x04: KeyCtrlD,
	0x05: KeyCtrlE,
	0x06: KeyCtrlF,
	0x07: KeyCtrlG,
	0x08: KeyBackspace, // Ctrl+H
	0x09: KeyTab,
	0x0a: KeyEnter, // LF
	0x0b: KeyCtrlK,
	0x0c: KeyCtrlL,
	0x0d: KeyEnter, // CR
	0x0e: KeyCtrlN,
	0x0f: KeyCtrlO,
	0x10: KeyCtrlP,
	0x11: KeyCtrlQ,
	0x12: KeyCtrlR,
	0x13: KeyCtrlS,
	0x14: KeyCtrlT,
	0x15: KeyCtrlU,
	0x16: KeyCtrlV,
	0x17: KeyCtrlW,
	0x18: KeyCtrlX,
	0x19: KeyCtrlY,
	0x1a: KeyCtrlZ,
	0x1b: KeyEscape,
	0x1c: KeyCtrlBackslash,
	0x1d: KeyCtrlBracketRight,
	0x1e: KeyCtrlCaret,
	0x1f: KeyCtrlUnderscore,
}
