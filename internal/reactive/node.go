package reactive

// node is the type-erased handle the scheduler operates on. Every
// concrete observable (Stream[A], Signal[A], and every operator built
// from them) embeds base and implements syncFire so the engine can
// dispatch virtually over heterogeneous node kinds without needing a
// generic graph type.
type node interface {
	rank() int
	order() uint64
	// syncFire is invoked by the transaction drain loop once this node
	// has been dequeued. By the time it runs, every parent with a lower
	// rank that was going to fire this transaction already has.
	syncFire(tx *Transaction)
}

// childLink is how a parent observable notifies a subscribed child that
// it has fired within the current transaction. The child reads the
// actual value back out of the parent through a typed field it holds
// directly (set at construction) — parentFired only carries the
// "something happened, consider becoming ready" signal, keeping the
// scheduler itself free of type parameters.
type childLink interface {
	parentFired(tx *Transaction)
}

// base holds the bookkeeping shared by every observable: its topological
// rank, FIFO tie-break order, observer refcounting, and the per-
// transaction scheduling guard. It is never used directly — concrete
// types embed it.
type base struct {
	engine *Engine
	topo   int

	// pushSeq is overwritten every time this node is pushed into a
	// transaction's queue (enqueueIfAbsent), so it always reflects this
	// node's position in THAT transaction's FIFO insertion order, not
	// some fixed construction-time value. A node is only ever in one
	// transaction's queue at a time (enqueuedTx below enforces that), so
	// reusing the field across transactions is safe.
	pushSeq uint64

	// refcount is externalObserverCount + internalObserverCount. The
	// node is started iff refcount > 0 (spec invariant: subscription
	// integrity).
	refcount int
	started  bool

	// enqueuedTx guards against adding this node to a transaction's
	// pending queue more than once per transaction (the open question
	// in spec §9 notes this check may be redundant given invariant 2,
	// but it is kept exactly as specified).
	enqueuedTx uint64

	// onStart/onStop run on the 0->1 / 1->0 observer-count transitions.
	// onStart recursively starts this node's own parents (and, for a
	// signal, computes its initial value); onStop releases them.
	onStart func()
	onStop  func()
}

func newBase(e *Engine, topo int) base {
	return base{
		engine: e,
		topo:   topo,
	}
}

func (b *base) rank() int     { return b.topo }
func (b *base) order() uint64 { return b.pushSeq }

// retain is the 0->1 / N->N+1 transition of the lifecycle manager
// (spec §4.3).
func (b *base) retain() {
	b.refcount++
	if b.refcount == 1 {
		b.started = true
		if b.onStart != nil {
			b.onStart()
		}
	}
}

// release is the 1->0 transition.
func (b *base) release() {
	b.refcount--
	if b.refcount == 0 {
		b.started = false
		if b.onStop != nil {
			b.onStop()
		}
	}
	if b.refcount < 0 {
		// Defensive: Subscription.Kill is meant to be idempotent, so
		// this should be unreachable, but never let the count go
		// negative.
		b.refcount = 0
	}
}

func (b *base) isStarted() bool { return b.started }

// enqueueIfAbsent adds self to tx's pending queue the first time it is
// called within a given transaction; subsequent calls in the same
// transaction are no-ops. This is both the merge re-entry check from
// spec §4.4 and the general multi-parent "ready" trigger from §4.5/§4.6 —
// rank ordering alone guarantees that by the time self is dequeued, every
// lower-ranked parent that will fire this transaction already has.
func (b *base) enqueueIfAbsent(tx *Transaction, self node) {
	if b.enqueuedTx == tx.id {
		return
	}
	b.enqueuedTx = tx.id
	b.pushSeq = tx.nextPushOrder()
	tx.push(self)
}
