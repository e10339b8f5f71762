package network

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies the semantic meaning of an envelope
type MessageType string

const (
	// Page to server
	MsgData   MessageType = "data"   // xterm onData text
	MsgBinary MessageType = "binary" // xterm onBinary, one byte per char code
	MsgResize MessageType = "resize" // Grid or element size changed
	MsgCursor MessageType = "cursor" // Active buffer cursor moved

	// Server to page
	MsgWrite MessageType = "write" // Payload for term.write
)

// ErrUnknownType is returned for envelopes with an unrecognized type
var ErrUnknownType = errors.New("unknown message type")

// Envelope is the JSON frame exchanged with the page.
// Fields irrelevant to Type are omitted on the wire.
type Envelope struct {
	Type   MessageType `json:"type"`
	Data   string      `json:"data,omitempty"`
	Cols   int         `json:"cols,omitempty"`
	Rows   int         `json:"rows,omitempty"`
	Width  int         `json:"width,omitempty"`
	Height int         `json:"height,omitempty"`
	X      int         `json:"x,omitempty"`
	Y      int         `json:"y,omitempty"`
}

// Encode marshals the envelope
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses one text frame
func DecodeEnvelope(p []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(p, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	switch e.Type {
	case MsgData, MsgBinary, MsgResize, MsgCursor, MsgWrite:
		return e, nil
	default:
		return e, fmt.Errorf("%w %q", ErrUnknownType, e.Type)
	}
}

// NewWrite creates an output envelope; p is copied
func NewWrite(p []byte) *Envelope {
	return &Envelope{Type: MsgWrite, Data: string(p)}
}
