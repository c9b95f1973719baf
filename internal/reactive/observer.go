package reactive

import "sync"

// Observer is the external sink contract from spec §6: OnNext receives a
// successful emission, OnError receives a failure. Either may be nil; an
// error delivered to a nil OnError counts as unhandled and is reported
// to the engine's sink exactly once.
type Observer[A any] struct {
	OnNext  func(A)
	OnError func(error)
}

func (o Observer[A]) deliver(e *Engine, t Try[A]) {
	if t.IsError() {
		if o.OnError != nil {
			o.OnError(t.err)
			return
		}
		e.reportUnhandled(t.err)
		return
	}
	if o.OnNext != nil {
		o.OnNext(t.value)
	}
}

// Subscription is the handle returned by Observe. Kill is idempotent and
// synchronous: calling it more than once, or concurrently, has no effect
// beyond the first call.
type Subscription struct {
	once sync.Once
	kill func()
}

// Kill detaches the observer. Safe to call multiple times or on a nil
// Subscription.
func (s *Subscription) Kill() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.kill != nil {
			s.kill()
		}
	})
}

func newSubscription(kill func()) *Subscription {
	return &Subscription{kill: kill}
}
