package tui

import "orderclient/observable"

// Watch turns notifications from every subscribe function into wake-ups on
// a one-slot channel. Bursts collapse into one pending signal, so observers
// never block the goroutine that raised them. Call stop to unsubscribe.
func Watch(subscribers ...func(observable.Observer) func()) (changes <-chan struct{}, stop func()) {
	ch := make(chan struct{}, 1)
	notify := observable.Observer(func(string) {
		select {
		case ch <- struct{}{}:
		default:
		}
	})

	unsubs := make([]func(), 0, len(subscribers))
	for _, subscribe := range subscribers {
		unsubs = append(unsubs, subscribe(notify))
	}
	return ch, func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
