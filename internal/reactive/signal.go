package reactive

// Signal is the continuous observable variant: it always has a current
// value once started, and a newly-attached observer receives a
// synchronous replay of that value before seeing any future firing
// (spec §3). As with Stream, every signal-shaped node — Var, map-over-
// signal, scan, combine — is a *Signal[A]; operator-specific
// behavior lives in the fire closure plus whatever onStart does.
type Signal[A any] struct {
	base

	external []*obsEntry[A]
	children []childLink

	current Try[A]
	firedTx uint64

	// fire runs when this node is dequeued. Nil for Var, which has no
	// parents and is mutated directly by Set rather than scheduled.
	fire func(tx *Transaction)
}

func newSignal[A any](e *Engine, topo int, initial Try[A]) *Signal[A] {
	return &Signal[A]{base: newBase(e, topo), current: initial}
}

func (s *Signal[A]) syncFire(tx *Transaction) {
	if s.fire != nil {
		s.fire(tx)
	}
}

func (s *Signal[A]) firedInTx(tx *Transaction) bool { return s.firedTx == tx.id }

// TryNow synchronously reads the current value, independent of any
// transaction. Safe to call whether or not the signal is started: a
// signal that has never started still holds whatever value it was
// constructed or last set with.
func (s *Signal[A]) TryNow() Try[A] { return s.current }

func (s *Signal[A]) fireValueInTx(tx *Transaction, t Try[A]) {
	if s.firedTx == tx.id {
		return
	}
	s.firedTx = tx.id
	s.current = t

	obsSnapshot := append([]*obsEntry[A](nil), s.external...)
	for _, entry := range obsSnapshot {
		if entry.active {
			entry.obs.deliver(s.engine, t)
		}
	}

	childSnapshot := append([]childLink(nil), s.children...)
	for _, c := range childSnapshot {
		c.parentFired(tx)
	}
}

// Observe attaches an external observer and immediately replays the
// current value to it — starting the signal first if this is the
// first observer, so the replay reflects a freshly-computed value
// rather than a stale construction-time default.
func (s *Signal[A]) Observe(obs Observer[A]) *Subscription {
	entry := &obsEntry[A]{obs: obs, active: true}
	s.external = append(s.external, entry)
	s.retain()
	if entry.active {
		obs.deliver(s.engine, s.current)
	}
	return newSubscription(func() {
		entry.active = false
		s.removeExternal(entry)
		s.release()
	})
}

func (s *Signal[A]) removeExternal(entry *obsEntry[A]) {
	for i, e := range s.external {
		if e == entry {
			s.external = append(s.external[:i], s.external[i+1:]...)
			return
		}
	}
}

func (s *Signal[A]) addChild(c childLink) {
	s.children = append(s.children, c)
	s.retain()
}

func (s *Signal[A]) removeChild(c childLink) {
	for i, cc := range s.children {
		if cc == c {
			s.children = append(s.children[:i], s.children[i+1:]...)
			s.release()
			return
		}
	}
}

// Var is a mutable root signal — the spec's source-of-truth entry point
// for injecting values into the graph from outside a transaction body
// (spec §4.1: sources are always rank 1). Set must be called from
// within a transaction body.
type Var[A any] struct {
	*Signal[A]
}

// NewVar constructs a root signal seeded with initial, at rank 1. It has
// no parents, so it never needs a fire closure or an onStart hook.
func NewVar[A any](e *Engine, initial A) *Var[A] {
	return &Var[A]{Signal: newSignal[A](e, 1, Success(initial))}
}

// Set assigns a new value within the current transaction. Must be
// called from inside a NewTransaction body (or from the synchronous
// continuation of one); calling it outside a transaction is a misuse
// of the contract, not something this method can safely sandbox.
func (v *Var[A]) Set(tx *Transaction, value A) {
	v.fireValueInTx(tx, Success(value))
}

// Fail assigns a failed Try to the variable within the current
// transaction, propagating the error to every observer the same way a
// value would propagate.
func (v *Var[A]) Fail(tx *Transaction, err error) {
	v.fireValueInTx(tx, Failure[A](err))
}
