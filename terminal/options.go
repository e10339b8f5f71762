package terminal

import (
	"io"

	"github.com/sirupsen/logrus"
)

const (
	DefaultQueueCapacity = 32       // Chunks buffered between host and stream
	DefaultMaxPending    = 64 << 10 // Bytes of partial sequence carried across chunks
)

// Options configures a Session, Relay or Stream. Zero value is usable.
type Options struct {
	QueueCapacity int
	Overflow      OverflowPolicy

	// DisableCarry decodes every chunk in isolation; an incomplete tail is dropped
	DisableCarry bool
	MaxPending   int

	ColorMode ColorMode

	// Logger receives debug diagnostics; nil discards
	Logger logrus.FieldLogger
}

// noopLogger discards all output
var noopLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func (o Options) withDefaults() Options {
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = DefaultQueueCapacity
	}
	if o.MaxPending <= 0 {
		o.MaxPending = DefaultMaxPending
	}
	if o.Logger == nil {
		o.Logger = noopLogger
	}
	return o
}
