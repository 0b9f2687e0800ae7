// Package observable provides change notification for UI-facing state.
//
// A Notifier owns an ordered list of observers and a table of derived
// properties. Writes to a Property or List raise the property name on the
// owning Notifier synchronously; Raise then cascades to every derived
// property declared with DependsOn. Derived properties have no storage of
// their own, so their dependency set must be declared explicitly.
package observable

import "sync"

// Observer receives the name of a property that changed
type Observer func(property string)

type subscription struct {
	id int
	fn Observer
}

// Notifier delivers property-change notifications in registration order
type Notifier struct {
	mu        sync.RWMutex
	nextID    int
	observers []subscription
	derived   map[string][]string
}

// NewNotifier creates a notifier with no observers
func NewNotifier() *Notifier {
	return &Notifier{derived: make(map[string][]string)}
}

// Subscribe registers o and returns a func that removes it again
func (n *Notifier) Subscribe(o Observer) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.observers = append(n.observers, subscription{id: id, fn: o})

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, s := range n.observers {
				if s.id == id {
					n.observers = append(n.observers[:i:i], n.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// DependsOn declares that derived must be raised whenever any source is raised
func (n *Notifier) DependsOn(derived string, sources ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, src := range sources {
		n.derived[src] = append(n.derived[src], derived)
	}
}

// Raise notifies observers of property, then of each property derived from it.
// All observers have been called by the time Raise returns.
func (n *Notifier) Raise(property string) {
	n.raise(property, map[string]bool{})
}

func (n *Notifier) raise(property string, seen map[string]bool) {
	if seen[property] {
		return
	}
	seen[property] = true

	n.mu.RLock()
	observers := append([]subscription(nil), n.observers...)
	dependents := append([]string(nil), n.derived[property]...)
	n.mu.RUnlock()

	for _, s := range observers {
		s.fn(property)
	}
	for _, d := range dependents {
		n.raise(d, seen)
	}
}
