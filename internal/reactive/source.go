package reactive

// SourceHandle is returned by NewSourceStream/NewSourceSignal. It lets
// the external producer (a WebSocket, an MQTT subscription, a timer)
// inject values without holding a reference to the observable's
// internals, matching the source contract from spec §6: a source's
// onStart wires to the external producer, onStop tears it down, and
// every inbound message opens its own transaction.
type SourceHandle[A any] struct {
	engine *Engine
	stream *Stream[A] // nil when backing a signal
	signal *Signal[A] // nil when backing a stream
}

// Fire injects a value, opening a new transaction unless one is already
// current on the engine (in which case, per §4.2's cross-transaction
// policy, this fire is simply queued behind it).
func (h SourceHandle[A]) Fire(v A) {
	h.engine.NewTransaction(func(tx *Transaction) {
		h.fireInTx(tx, Success(v))
	})
}

// FireError injects a failure — typically a SourceError or
// ConnectionClosed raised by an external collaborator.
func (h SourceHandle[A]) FireError(err error) {
	h.engine.NewTransaction(func(tx *Transaction) {
		h.fireInTx(tx, Failure[A](err))
	})
}

func (h SourceHandle[A]) fireInTx(tx *Transaction, t Try[A]) {
	if h.stream != nil {
		h.stream.fireValueInTx(tx, t)
		return
	}
	h.signal.fireValueInTx(tx, t)
}

// Source is the lifecycle contract an external producer implements:
// Start is called on the node's 0->1 observer transition and should
// begin delivering values through the handle; Stop is called on the
// 1->0 transition and must make the producer stop touching the handle
// before returning (spec §6: "clear the local reference before calling
// close, so the close handler, if synchronous, becomes a no-op").
type Source[A any] interface {
	Start(h SourceHandle[A])
	Stop()
}

// NewSourceStream builds a rank-1 stream whose lifecycle is driven by
// src: started on first observer, stopped on last removal.
func NewSourceStream[A any](e *Engine, src Source[A]) *Stream[A] {
	out := newStream[A](e, 1)
	handle := SourceHandle[A]{engine: e, stream: out}
	out.onStart = func() { src.Start(handle) }
	out.onStop = func() { src.Stop() }
	return out
}

// NewSourceSignal builds a rank-1 signal seeded with initial; src only
// drives it once started, same as NewSourceStream.
func NewSourceSignal[A any](e *Engine, initial A, src Source[A]) *Signal[A] {
	out := newSignal[A](e, 1, Success(initial))
	handle := SourceHandle[A]{engine: e, signal: out}
	out.onStart = func() { src.Start(handle) }
	out.onStop = func() { src.Stop() }
	return out
}
