// Package status holds named runtime counters shared between the bridge
// server and whatever reports on it.
package status

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Registry groups counters and string gauges
// Writers cache pointers from Get and update the atomics directly
type Registry struct {
	Ints    *MetricMap[atomic.Int64]
	Strings *MetricMap[AtomicString]
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		Ints:    NewMetricMap[atomic.Int64](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// TotalCount returns the number of registered metrics
func (r *Registry) TotalCount() int {
	return r.Ints.Count() + r.Strings.Count()
}

// Fields returns a point-in-time copy of every metric, keyed by name
func (r *Registry) Fields() logrus.Fields {
	f := make(logrus.Fields, r.TotalCount())
	r.Ints.Range(func(key string, v *atomic.Int64) {
		f[key] = v.Load()
	})
	r.Strings.Range(func(key string, v *AtomicString) {
		f[key] = v.Load()
	})
	return f
}
