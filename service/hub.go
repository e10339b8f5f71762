package service

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
)

// Hub is the runtime container for service instances.
// It initializes and starts services in dependency order and stops them in reverse.
type Hub struct {
	mu       sync.RWMutex
	services map[string]Service
	log      logrus.FieldLogger
	sorted   []string // Topological order, computed on InitAll
	started  []string // Services that completed Start(), for rollback
}

// NewHub creates an empty service hub; log may be nil
func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		services: make(map[string]Service),
		log:      log,
	}
}

// Register adds a service instance to the hub
// Clears cached sort order to force recomputation
func (h *Hub) Register(svc Service) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	name := svc.Name()
	if _, exists := h.services[name]; exists {
		return fmt.Errorf("service already registered: %s", name)
	}

	h.services[name] = svc
	h.sorted = nil // Invalidate cached order
	return nil
}

// Get retrieves a service by name
func (h *Hub) Get(name string) (Service, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	svc, ok := h.services[name]
	return svc, ok
}

// MustGet retrieves a service and casts to type T
// Panics if service not found or type mismatch
func MustGet[T any](h *Hub, name string) T {
	h.mu.RLock()
	svc, ok := h.services[name]
	h.mu.RUnlock()

	if !ok {
		panic(fmt.Sprintf("service not found: %s", name))
	}

	typed, ok := svc.(T)
	if !ok {
		panic(fmt.Sprintf("service %s: type mismatch, got %T", name, svc))
	}
	return typed
}

// InitAll resolves dependencies and calls Init on all services with the
// args registered under their name in args
// On failure, calls Stop on already-initialized services in reverse order
func (h *Hub) InitAll(args map[string][]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sorted == nil {
		order, err := h.topologicalSort()
		if err != nil {
			return err
		}
		h.sorted = order
	}

	var initialized []string
	for _, name := range h.sorted {
		svc := h.services[name]
		if err := svc.Init(args[name]...); err != nil {
			h.rollback(initialized)
			return fmt.Errorf("service %s init failed: %w", name, err)
		}
		initialized = append(initialized, name)
	}

	return nil
}

// StartAll calls Start on all services in topological order
// On failure, calls Stop on already-started services in reverse order
func (h *Hub) StartAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sorted == nil {
		return errors.New("services not initialized")
	}

	h.started = nil
	for _, name := range h.sorted {
		if err := h.services[name].Start(); err != nil {
			h.rollback(h.started)
			h.started = nil
			return fmt.Errorf("service %s start failed: %w", name, err)
		}
		h.started = append(h.started, name)
		h.log.WithField("service", name).Debug("service started")
	}

	return nil
}

// StopAll calls Stop on all started services in reverse topological order
// Every service gets Stop called; errors are logged and joined
func (h *Hub) StopAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for i := len(h.started) - 1; i >= 0; i-- {
		name := h.started[i]
		if err := h.services[name].Stop(); err != nil {
			h.log.WithError(err).WithField("service", name).Warn("service stop failed")
			errs = append(errs, fmt.Errorf("service %s: %w", name, err))
		}
	}
	h.started = nil
	return errors.Join(errs...)
}

// rollback stops names in reverse order, logging failures
func (h *Hub) rollback(names []string) {
	for i := len(names) - 1; i >= 0; i-- {
		if err := h.services[names[i]].Stop(); err != nil {
			h.log.WithError(err).WithField("service", names[i]).Warn("rollback stop failed")
		}
	}
}

// topologicalSort computes initialization order using Kahn's algorithm
// Ties are broken by name so the order is deterministic
func (h *Hub) topologicalSort() ([]string, error) {
	inDegree := make(map[string]int)
	dependents := make(map[string][]string) // dep -> services that depend on it

	names := make([]string, 0, len(h.services))
	for name := range h.services {
		names = append(names, name)
		inDegree[name] = 0
	}
	slices.Sort(names)

	for _, name := range names {
		for _, dep := range h.services[name].Dependencies() {
			if _, exists := h.services[dep]; !exists {
				return nil, fmt.Errorf("service %s depends on unregistered service: %s", name, dep)
			}
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var queue []string
	for _, name := range names {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	result := make([]string, 0, len(h.services))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		result = append(result, name)

		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(h.services) {
		return nil, errors.New("circular dependency detected in services")
	}

	return result, nil
}

// Names returns registered service names in start order once initialized,
// sorted by name before that
func (h *Hub) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.sorted != nil {
		return slices.Clone(h.sorted)
	}
	names := make([]string, 0, len(h.services))
	for name := range h.services {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
