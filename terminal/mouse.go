package terminal

// MouseButton represents mouse button identity
type MouseButton uint8

const (
	MouseBtnNone MouseButton = iota
	MouseBtnLeft
	MouseBtnMiddle
	MouseBtnRight
	MouseBtnWheelUp
	MouseBtnWheelDown
	MouseBtnWheelLeft
	MouseBtnWheelRight
	MouseBtnBack    // Button 8
	MouseBtnForward // Button 9
)

// MouseAction represents the type of mouse event
type MouseAction uint8

const (
	MouseActionNone MouseAction = iota
	MouseActionPress
	MouseActionRelease
	MouseActionMove
	MouseActionDrag
)

// String returns human-readable button name
func (b MouseButton) String() string {
	switch b {
	case MouseBtnLeft:
		return "Left"
	case MouseBtnMiddle:
		return "Middle"
	case MouseBtnRight:
		return "Right"
	case MouseBtnWheelUp:
		return "WheelUp"
	case MouseBtnWheelDown:
		return "WheelDown"
	case MouseBtnWheelLeft:
		return "WheelLeft"
	case MouseBtnWheelRight:
		return "WheelRight"
	case MouseBtnBack:
		return "Back"
	case MouseBtnForward:
		return "Forward"
	default:
		return "None"
	}
}

// String returns human-readable action name
func (a MouseAction) String() string {
	switch a {
	case MouseActionPress:
		return "Press"
	case MouseActionRelease:
		return "Release"
	case MouseActionMove:
		return "Move"
	case MouseActionDrag:
		return "Drag"
	default:
		return "None"
	}
}

// mouseFromButtonCode decodes the xterm button byte shared by SGR and X10 reports.
// released is the protocol-level release flag (SGR 'm'); X10 signals release via button 3.
func mouseFromButtonCode(cb int, released bool) (MouseButton, MouseAction, Modifier) {
	var mod Modifier
	if cb&4 != 0 {
		mod |= ModShift
	}
	if cb&8 != 0 {
		mod |= ModAlt
	}
	if cb&16 != 0 {
		mod |= ModCtrl
	}

	// Bits 0-1: button, bit 5 (32): motion, bit 6 (64): wheel, bit 7 (128): extra buttons
	buttonID := cb & 0x03
	isMotion := cb&32 != 0

	switch {
	case cb&128 != 0:
		btn := MouseBtnBack
		if buttonID == 1 {
			btn = MouseBtnForward
		}
		if released {
			return btn, MouseActionRelease, mod
		}
		return btn, MouseActionPress, mod

	case cb&64 != 0:
		// Wheel is instantaneous: report as press
		btn := [4]MouseButton{MouseBtnWheelUp, MouseBtnWheelDown, MouseBtnWheelLeft, MouseBtnWheelRight}[buttonID]
		return btn, MouseActionPress, mod
	}

	btn := [4]MouseButton{MouseBtnLeft, MouseBtnMiddle, MouseBtnRight, MouseBtnNone}[buttonID]

	switch {
	case isMotion && btn != MouseBtnNone:
		return btn, MouseActionDrag, mod
	case isMotion:
		return MouseBtnNone, MouseActionMove, mod
	case released || btn == MouseBtnNone:
		return btn, MouseActionRelease, mod
	default:
		return btn, MouseActionPress, mod
	}
}
