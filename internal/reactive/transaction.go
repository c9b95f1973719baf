package reactive

import (
	"container/heap"

	"github.com/google/uuid"
)

// Transaction represents one atomic propagation step. Exactly one
// transaction is current on its engine at a time; every other
// transaction queues until the current one fully drains (spec §4.2).
type Transaction struct {
	id      uint64
	traceID uuid.UUID
	engine  *Engine
	queue   nodeHeap
	pushSeq uint64
}

// TraceID returns a UUIDv7 identifying this transaction in logs. It is
// generated lazily on first access and memoized, since most
// transactions are never logged at a level that needs it.
func (tx *Transaction) TraceID() uuid.UUID {
	if tx.traceID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			id = uuid.New()
		}
		tx.traceID = id
	}
	return tx.traceID
}

// nextPushOrder hands out the FIFO tie-break value for the next node
// pushed into this transaction's queue. It is scoped to the transaction,
// not the node's lifetime, so two nodes that race to be pushed within
// the same transaction are ordered by which one got enqueued first in
// THIS propagation step — matching "FIFO insertion order into the
// pending queue" — rather than by which one was constructed first.
func (tx *Transaction) nextPushOrder() uint64 {
	tx.pushSeq++
	return tx.pushSeq
}

// push adds a node to the transaction's rank-ordered pending queue.
// Ties are broken by insertion order (FIFO), recorded on the node via
// nextPushOrder at the moment it is enqueued.
func (tx *Transaction) push(n node) {
	heap.Push(&tx.queue, n)
}

// nodeHeap is a container/heap priority queue ordered by ascending rank,
// with ascending per-transaction push order breaking ties — this is the
// sole ordering key the scheduler uses (spec §4.1).
type nodeHeap []node

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].rank() != h[j].rank() {
		return h[i].rank() < h[j].rank()
	}
	return h[i].order() < h[j].order()
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) {
	*h = append(*h, x.(node))
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
