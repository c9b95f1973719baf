package reactive

import "sort"

type mergeItem[A any] struct {
	parentIdx  int
	parentRank int
	value      Try[A]
}

// Merge emits the union of events from N parent streams of the same
// type (spec §4.4). On syncFire it drains everything buffered for this
// transaction in parent-rank order: the first value fires inline in the
// current transaction, and every value after that opens its own new
// transaction, so merge never violates "at most one emission per node
// per transaction" even when several parents co-fire off a common
// ancestor (spec scenario S2).
func Merge[A any](parents ...*Stream[A]) *Stream[A] {
	rank := 1
	for _, p := range parents {
		if p.rank() >= rank {
			rank = p.rank() + 1
		}
	}
	engine := parents[0].engine
	out := newStream[A](engine, rank)

	var pending []mergeItem[A]
	links := make([]fnLink, len(parents))
	for i, p := range parents {
		idx, pr := i, p.rank()
		parent := p
		links[i] = fnLink{f: func(tx *Transaction) {
			pending = append(pending, mergeItem[A]{parentIdx: idx, parentRank: pr, value: parent.pendingValue()})
			// Re-entry guard from spec §9's open question: enqueue only
			// if this node isn't already pending in tx.
			out.enqueueIfAbsent(tx, out)
		}}
	}

	out.fire = func(tx *Transaction) {
		batch := pending
		pending = nil
		if len(batch) == 0 {
			return
		}
		sort.SliceStable(batch, func(i, j int) bool {
			if batch[i].parentRank != batch[j].parentRank {
				return batch[i].parentRank < batch[j].parentRank
			}
			return batch[i].parentIdx < batch[j].parentIdx
		})

		out.fireValueInTx(tx, batch[0].value)
		for _, item := range batch[1:] {
			value := item.value
			out.engine.NewTransaction(func(tx2 *Transaction) {
				out.fireValueInTx(tx2, value)
			})
		}
	}
	out.onStart = func() {
		for i, p := range parents {
			p.addChild(links[i])
		}
	}
	out.onStop = func() {
		for i, p := range parents {
			p.removeChild(links[i])
		}
		pending = nil
	}
	return out
}
