package observable

import "sync"

// Property is a named value that raises its name on every value-changing write
type Property[T comparable] struct {
	owner *Notifier
	name  string

	mu    sync.RWMutex
	value T
}

// NewProperty creates a property on owner holding initial; no notification is sent
func NewProperty[T comparable](owner *Notifier, name string, initial T) *Property[T] {
	return &Property[T]{owner: owner, name: name, value: initial}
}

// Name returns the property name used in notifications
func (p *Property[T]) Name() string { return p.name }

// Get returns the current value
func (p *Property[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set stores v and notifies when it differs from the current value.
// It reports whether the value changed.
func (p *Property[T]) Set(v T) bool {
	if !p.Store(v) {
		return false
	}
	p.owner.Raise(p.name)
	return true
}

// Store updates the value without notifying and reports whether it changed.
// The caller raises Name once the state related to it is consistent.
func (p *Property[T]) Store(v T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.value == v {
		return false
	}
	p.value = v
	return true
}
