package reactive

// enqueueOnFire is the childLink used by single-parent operators
// (map/filter/collect/scan/debug) and by a multi-parent node's "any
// parent firing makes me a scheduling candidate" wiring (combine,
// sample's triggering stream). enqueueIfAbsent makes repeated calls
// within one transaction idempotent, so it is safe to wire the same
// adapter to every parent of a multi-parent node.
type enqueueOnFire struct {
	self node
	b    *base
}

func (e enqueueOnFire) parentFired(tx *Transaction) {
	e.b.enqueueIfAbsent(tx, e.self)
}

// noopLink is registered with a parent purely to keep it started —
// spec §4.6: sampled signals are subscribed to with a no-op internal
// observer so their current value stays live, without ever making the
// sampling node itself a scheduling candidate.
type noopLink struct{}

func (noopLink) parentFired(*Transaction) {}

// fnLink adapts an arbitrary closure to childLink, for the handful of
// nodes (CombineStream, Merge) whose response to a parent firing is
// more than "become a scheduling candidate" — they also need to record
// which parent fired and with what value before doing so.
type fnLink struct {
	f func(tx *Transaction)
}

func (l fnLink) parentFired(tx *Transaction) { l.f(tx) }
