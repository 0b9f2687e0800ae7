package observable

import "sync"

// List is an ordered, observable sequence. Every mutation that changes the
// contents raises the list's name exactly once.
type List[T any] struct {
	owner *Notifier
	name  string

	mu    sync.RWMutex
	items []T
}

// NewList creates an empty list on owner
func NewList[T any](owner *Notifier, name string) *List[T] {
	return &List[T]{owner: owner, name: name}
}

// Name returns the property name used in notifications
func (l *List[T]) Name() string { return l.name }

// Append adds items to the end of the list
func (l *List[T]) Append(items ...T) {
	if len(items) == 0 {
		return
	}
	l.mu.Lock()
	l.items = append(l.items, items...)
	l.mu.Unlock()

	l.owner.Raise(l.name)
}

// RemoveAt deletes the element at i. Out-of-range indices are ignored.
func (l *List[T]) RemoveAt(i int) bool {
	l.mu.Lock()
	if i < 0 || i >= len(l.items) {
		l.mu.Unlock()
		return false
	}
	l.items = append(l.items[:i:i], l.items[i+1:]...)
	l.mu.Unlock()

	l.owner.Raise(l.name)
	return true
}

// Reset empties the list, notifying only if it held anything
func (l *List[T]) Reset() {
	l.mu.Lock()
	if len(l.items) == 0 {
		l.mu.Unlock()
		return
	}
	l.items = nil
	l.mu.Unlock()

	l.owner.Raise(l.name)
}

// Items returns a copy of the contents
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.items...)
}

// Len returns the number of elements
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Last returns the final element, if any
func (l *List[T]) Last() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var zero T
	if len(l.items) == 0 {
		return zero, false
	}
	return l.items[len(l.items)-1], true
}
