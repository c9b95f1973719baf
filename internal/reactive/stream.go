package reactive

// Stream is the discrete observable variant: it carries values only at
// the instants it fires and has no notion of a "current value" between
// firings (spec §3). Every stream-shaped node in the graph — sources,
// map/filter/collect/debug outputs, merges, combine-to-stream, the
// sampling result — is represented by a *Stream[A]; the difference
// between operator kinds lives entirely in the fire closure supplied at
// construction.
type Stream[A any] struct {
	base

	external []*obsEntry[A]
	children []childLink

	pending Try[A]
	firedTx uint64

	// fire runs when this node is dequeued by the transaction drain loop.
	// It is nil for pure source streams, which fire directly (via
	// fireValueInTx) as the initiating act of a transaction instead of
	// being scheduled through the queue.
	fire func(tx *Transaction)
}

type obsEntry[A any] struct {
	obs    Observer[A]
	active bool
}

func newStream[A any](e *Engine, topo int) *Stream[A] {
	return &Stream[A]{base: newBase(e, topo)}
}

func (s *Stream[A]) syncFire(tx *Transaction) {
	if s.fire != nil {
		s.fire(tx)
	}
}

// firedInTx reports whether this stream has already fired within tx —
// used by multi-parent operators to tell which of their parents, if
// any, actually produced a value this transaction.
func (s *Stream[A]) firedInTx(tx *Transaction) bool { return s.firedTx == tx.id }

// pendingValue returns the Try this stream fired within the transaction
// currently reading it. Only meaningful when firedInTx is true.
func (s *Stream[A]) pendingValue() Try[A] { return s.pending }

// fireValueInTx records this stream as fired for tx (so
// firedInTx/pendingValue answer correctly for the rest of the drain),
// then delivers t to every external observer and wakes every internal
// child.
// Guarded so a stream that somehow gets driven twice within the same
// transaction (spec invariant 2: exactly one emission per observable
// per transaction) only actually fires once.
func (s *Stream[A]) fireValueInTx(tx *Transaction, t Try[A]) {
	if s.firedTx == tx.id {
		return
	}
	s.firedTx = tx.id
	s.pending = t

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

// Observe attaches an external observer. Streams never replay on
// subscribe — the new observer only sees emissions that happen after
// this call returns.
func (s *Stream[A]) Observe(obs Observer[A]) *Subscription {
	entry := &obsEntry[A]{obs: obs, active: true}
	s.external = append(s.external, entry)
	s.retain()
	return newSubscription(func() {
		entry.active = false
		s.removeExternal(entry)
		s.release()
	})
}

func (s *Stream[A]) removeExternal(entry *obsEntry[A]) {
	for i, e := range s.external {
		if e == entry {
			s.external = append(s.external[:i], s.external[i+1:]...)
			return
		}
	}
}

// addChild registers an internal observer (another node in the graph)
// and retains this stream, starting it if it was dormant.
func (s *Stream[A]) addChild(c childLink) {
	s.children = append(s.children, c)
	s.retain()
}

func (s *Stream[A]) removeChild(c childLink) {
	for i, cc := range s.children {
		if cc == c {
			s.children = append(s.children[:i], s.children[i+1:]...)
			s.release()
			return
		}
	}
}
