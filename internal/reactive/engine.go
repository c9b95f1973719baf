package reactive

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"
)

// Engine owns the process-local (per host thread) state the propagation
// protocol needs: the queue of pending transactions, the monotonic
// transaction-id counter, and the unhandled-error sink of last resort
// (the FIFO push-order counter lives on each Transaction). Nothing
// here is a package-level global — callers construct one Engine per host
// thread, per spec §9's design note.
type Engine struct {
	logger *slog.Logger
	clock  func() time.Time
	sinks  []func(error)

	mu        sync.Mutex
	current   *transactionJob
	pendingTx []*transactionJob
	nextTxID  uint64
}

type transactionJob struct {
	tx   *Transaction
	body func(*Transaction)
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine)

// WithLogger sets the structured logger used for lifecycle and
// unhandled-error events. Defaults to slog.Default(); passing nil also
// falls back to slog.Default(), resolved in NewEngine.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithErrorSink registers an additional subscriber to the unhandled
// error channel, composed after the default (logging) sink. A panic
// raised by sink is recovered and reported through the logger instead
// of crashing the engine — per spec §7, sink callbacks cannot themselves
// throw into the engine.
func WithErrorSink(sink func(error)) EngineOption {
	return func(e *Engine) { e.sinks = append(e.sinks, sink) }
}

// WithClock injects the clock that Engine.Now reports, mainly so tests
// can use a deterministic one. Defaults to time.Now. Transactions carry
// no timestamp of their own.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

// NewEngine constructs an Engine ready to run transactions.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	return e
}

// Now returns the engine's current time, via the injected clock.
func (e *Engine) Now() time.Time { return e.clock() }

// Logger returns the engine's structured logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// reportUnhandled routes an error to the default logging sink and any
// sinks registered via WithErrorSink. Each sink is isolated from the
// others: a panicking sink is recovered and logged, never propagated.
func (e *Engine) reportUnhandled(err error) {
	e.logger.Warn("unhandled error reported to sink", "error", err)
	for _, sink := range e.sinks {
		e.invokeSinkSafely(sink, err)
	}
}

func (e *Engine) invokeSinkSafely(sink func(error), err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("error sink panicked, swallowing", "panic", r)
		}
	}()
	sink(err)
}

// NewTransaction runs body as one atomic propagation step. If no
// transaction is currently draining on this engine, body runs
// immediately and the returned call does not return until the entire
// transaction (including every descendant it schedules) has drained. If
// a transaction is already current — whether because this call is
// re-entrant from within an observer callback running on the same
// goroutine, or because another goroutine is mid-drain — this
// transaction is queued and runs, in FIFO order, once the current one
// (and every transaction queued ahead of it) has fully drained.
func (e *Engine) NewTransaction(body func(tx *Transaction)) {
	e.mu.Lock()
	e.nextTxID++
	tx := &Transaction{id: e.nextTxID, engine: e}
	job := &transactionJob{tx: tx, body: body}

	if e.current != nil {
		e.pendingTx = append(e.pendingTx, job)
		e.mu.Unlock()
		return
	}

	e.current = job
	e.mu.Unlock()

	e.runLoop(job)
}

// runLoop drains job and then, iteratively (never recursively, so a long
// chain of re-entrant transactions cannot overflow the stack), drains
// every transaction that queued up while draining. Only one goroutine
// ever executes this loop for a given engine at a time; mu only guards
// the tiny bookkeeping around "what runs next", never the drain itself,
// so user callbacks never run while holding the lock.
func (e *Engine) runLoop(job *transactionJob) {
	for job != nil {
		e.drain(job)

		e.mu.Lock()
		if len(e.pendingTx) > 0 {
			job = e.pendingTx[0]
			e.pendingTx = e.pendingTx[1:]
			e.current = job
		} else {
			e.current = nil
			job = nil
		}
		e.mu.Unlock()
	}
}

// drain implements the algorithm from spec §4.2: run body, then
// repeatedly dequeue the minimum-rank pending observable and fire it
// until the queue empties.
func (e *Engine) drain(job *transactionJob) {
	tx := job.tx
	if e.logger.Enabled(context.Background(), slog.LevelDebug) {
		e.logger.Debug("transaction draining", "trace_id", tx.TraceID())
	}
	job.body(tx)
	for tx.queue.Len() > 0 {
		n := heap.Pop(&tx.queue).(node)
		n.syncFire(tx)
	}
}
