//go:build js && wasm

package terminal

import (
	"errors"
	"sync"
	"syscall/js"

	"github.com/sirupsen/logrus"
)

// XtermHost adapts an xterm.js Terminal object. Input arrives through the
// onData and onBinary events; size and cursor are read from the live widget.
type XtermHost struct {
	term js.Value
	log  logrus.FieldLogger

	// OnResize, when set before Listen, is called from xterm's onResize
	OnResize func(cols, rows int)
}

// NewXtermHost wraps term, typically js.Global().Get("term")
func NewXtermHost(term js.Value, log logrus.FieldLogger) (*XtermHost, error) {
	if term.IsUndefined() || term.IsNull() {
		return nil, errors.New("xterm: terminal object not found")
	}
	if log == nil {
		log = noopLogger
	}
	return &XtermHost{term: term, log: log.WithField("component", "xterm")}, nil
}

// Listen subscribes sink to the widget's input events
func (h *XtermHost) Listen(sink InputSink) (func(), error) {
	var funcs []js.Func
	var subs []js.Value

	subscribe := func(event string, fn func(args []js.Value)) {
		f := js.FuncOf(func(_ js.Value, args []js.Value) any {
			fn(args)
			return nil
		})
		funcs = append(funcs, f)
		subs = append(subs, h.term.Call(event, f))
	}

	subscribe("onData", func(args []js.Value) {
		if len(args) > 0 {
			sink.OnData(args[0].String())
		}
	})
	subscribe("onBinary", func(args []js.Value) {
		if len(args) > 0 {
			sink.OnBinary(args[0].String())
		}
	})
	if h.OnResize != nil {
		subscribe("onResize", func(args []js.Value) {
			if len(args) > 0 {
				h.OnResize(args[0].Get("cols").Int(), args[0].Get("rows").Int())
			}
		})
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, s := range subs {
				s.Call("dispose")
			}
			for _, f := range funcs {
				f.Release()
			}
			h.log.Debug("xterm listeners disposed")
		})
	}, nil
}

// Size reads the widget grid
func (h *XtermHost) Size() (int, int) {
	return h.term.Get("cols").Int(), h.term.Get("rows").Int()
}

// PixelSize reads the client size of the widget's DOM element
func (h *XtermHost) PixelSize() (int, int) {
	el := h.term.Get("element")
	if el.IsUndefined() || el.IsNull() {
		return 0, 0
	}
	return el.Get("clientWidth").Int(), el.Get("clientHeight").Int()
}

// CursorPosition reads the active buffer's cursor
func (h *XtermHost) CursorPosition() (int, int) {
	buf := h.term.Get("buffer").Get("active")
	return buf.Get("cursorX").Int(), buf.Get("cursorY").Int()
}

// Write copies p into a Uint8Array and hands it to the widget
func (h *XtermHost) Write(p []byte) error {
	arr := js.Global().Get("Uint8Array").New(len(p))
	js.CopyBytesToJS(arr, p)
	h.term.Call("write", arr)
	return nil
}

var _ Host = (*XtermHost)(nil)
