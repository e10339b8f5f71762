package terminal

// Host abstracts the terminal widget a Session is attached to.
// Implementations exist for xterm.js under WebAssembly, a local TTY,
// and the websocket bridge in package network.
type Host interface {
	// Listen registers sink for the widget's input callbacks.
	// The returned stop func unregisters them and must be safe to call once.
	Listen(sink InputSink) (stop func(), err error)

	// Size reports the current grid in columns and rows
	Size() (cols, rows int)

	// PixelSize reports the rendering element size in pixels, 0 if unknown
	PixelSize() (width, height int)

	// CursorPosition reports the 0-indexed cursor column and row
	CursorPosition() (x, y int)

	// Write sends raw output bytes to the widget; p is not retained
	Write(p []byte) error
}

// InputSink receives host input callbacks. Methods never block and may be
// called from the host's event loop.
type InputSink interface {
	// OnData receives UTF-8 text as delivered by an xterm onData callback
	OnData(data string)

	// OnBinary receives a string whose char codes are each one raw byte
	OnBinary(data string)

	// OnBytes receives raw bytes already in wire form; p is not retained
	OnBytes(p []byte)
}

// cursorTracker is implemented by hosts that cannot query the cursor and
// instead track positions set by the Renderer
type cursorTracker interface {
	trackCursor(x, y int)
}
