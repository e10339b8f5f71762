package terminal

import (
	"errors"
	"fmt"
)

var (
	// ErrIncomplete reports that a byte sequence needs more data to decode
	ErrIncomplete = errors.New("terminal: incomplete sequence")

	// ErrNotReady is returned by Stream.Poll when no event is available yet
	ErrNotReady = errors.New("terminal: no event ready")

	// ErrClosed is returned by relay and session queries after teardown
	ErrClosed = errors.New("terminal: session closed")

	// ErrMalformed matches any *MalformedError via errors.Is
	ErrMalformed = errors.New("terminal: malformed input")

	// ErrInvalidGrid is returned by Renderer.Flush for bad dimensions or short cell slices
	ErrInvalidGrid = errors.New("terminal: invalid grid")
)

// MalformedError reports invalid character data inside a payload
type MalformedError struct {
	Offset int  // Byte offset within the chunk being drained
	Byte   byte // First offending byte
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("terminal: malformed input at offset %d (0x%02x)", e.Offset, e.Byte)
}

// Is makes errors.Is(err, ErrMalformed) hold for every MalformedError
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}
