package reactive

// Single-parent operators (spec §4.8): rank is parent.rank+1, and each
// fires in the same transaction as its parent, immediately upon the
// parent firing — a single-parent node is always ready the instant its
// one parent has.

// Map applies a pure function to every value a stream emits. A panic or
// error from f is delivered downstream as a CombinatorError instead of
// propagating into the engine.
func Map[A, B any](parent *Stream[A], f func(A) B) *Stream[B] {
	out := newStream[B](parent.engine, parent.rank()+1)
	link := enqueueOnFire{b: &out.base}
	link.self = out
	out.fire = func(tx *Transaction) {
		if !parent.firedInTx(tx) {
			return
		}
		out.fireValueInTx(tx, mapTry(parent.pendingValue(), f))
	}
	out.onStart = func() { parent.addChild(link) }
	out.onStop = func() { parent.removeChild(link) }
	return out
}

// MapSignal applies a pure function to a signal's current value,
// producing a derived signal that recomputes on every parent firing and
// whose initial value is computed synchronously from the parent's
// current value at start time.
func MapSignal[A, B any](parent *Signal[A], f func(A) B) *Signal[B] {
	out := newSignal[B](parent.engine, parent.rank()+1, Try[B]{})
	link := enqueueOnFire{b: &out.base}
	link.self = out
	out.fire = func(tx *Transaction) {
		if !parent.firedInTx(tx) {
			return
		}
		out.fireValueInTx(tx, mapTry(parent.TryNow(), f))
	}
	out.onStart = func() {
		parent.addChild(link)
		out.current = mapTry(parent.TryNow(), f)
	}
	out.onStop = func() { parent.removeChild(link) }
	return out
}

// Filter drops values failing predicate. A predicate panic or error is
// itself emitted downstream as a CombinatorError, same as map.
func Filter[A any](parent *Stream[A], predicate func(A) bool) *Stream[A] {
	out := newStream[A](parent.engine, parent.rank()+1)
	link := enqueueOnFire{b: &out.base}
	link.self = out
	out.fire = func(tx *Transaction) {
		if !parent.firedInTx(tx) {
			return
		}
		t := parent.pendingValue()
		if t.IsError() {
			out.fireValueInTx(tx, t)
			return
		}
		keep, err := safePredicate(predicate, t.value)
		if err != nil {
			out.fireValueInTx(tx, Failure[A](&CombinatorError{Cause: err}))
			return
		}
		if keep {
			out.fireValueInTx(tx, t)
		}
	}
	out.onStart = func() { parent.addChild(link) }
	out.onStop = func() { parent.removeChild(link) }
	return out
}

func safePredicate[A any](predicate func(A) bool, v A) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return predicate(v), nil
}

// Collect threads explicit state through a stream the way Sodium's
// collect combinator does: f receives the current state alongside each
// parent value and returns the emitted value plus the next state. Unlike
// Scan, the state itself is never exposed as a signal — only the
// transformed stream is observable.
func Collect[A, B, S any](parent *Stream[A], initState S, f func(A, S) (B, S)) *Stream[B] {
	out := newStream[B](parent.engine, parent.rank()+1)
	state := initState
	link := enqueueOnFire{b: &out.base}
	link.self = out
	out.fire = func(tx *Transaction) {
		if !parent.firedInTx(tx) {
			return
		}
		t := parent.pendingValue()
		if t.IsError() {
			out.fireValueInTx(tx, Failure[B](t.Err()))
			return
		}
		result, next, err := safeCollect(f, t.value, state)
		if err != nil {
			out.fireValueInTx(tx, Failure[B](&CombinatorError{Cause: err}))
			return
		}
		state = next
		out.fireValueInTx(tx, Success(result))
	}
	out.onStart = func() { parent.addChild(link) }
	out.onStop = func() { parent.removeChild(link) }
	return out
}

func safeCollect[A, B, S any](f func(A, S) (B, S), v A, s S) (b B, next S, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	b, next = f(v, s)
	return b, next, nil
}

// Scan folds a stream into a signal: the accumulator is the signal's
// current value, seeded once at construction and preserved across any
// subsequent stop/restart (spec: "signals preserve their last value
// across stop/restart") — a restart resumes the fold, it does not
// reseed it.
func Scan[A, B any](parent *Stream[A], seed B, f func(B, A) B) *Signal[B] {
	out := newSignal[B](parent.engine, parent.rank()+1, Success(seed))
	everStarted := false
	link := enqueueOnFire{b: &out.base}
	link.self = out
	out.fire = func(tx *Transaction) {
		if !parent.firedInTx(tx) {
			return
		}
		t := parent.pendingValue()
		if t.IsError() {
			out.fireValueInTx(tx, Failure[B](t.Err()))
			return
		}
		prev, _ := out.TryNow().Value()
		next, err := safeScan(f, prev, t.value)
		if err != nil {
			out.fireValueInTx(tx, Failure[B](&CombinatorError{Cause: err}))
			return
		}
		out.fireValueInTx(tx, Success(next))
	}
	out.onStart = func() {
		parent.addChild(link)
		if !everStarted {
			everStarted = true
			out.current = Success(seed)
		}
	}
	out.onStop = func() { parent.removeChild(link) }
	return out
}

func safeScan[B, A any](f func(B, A) B, acc B, v A) (next B, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return f(acc, v), nil
}

// DebugLifecycle hooks are an identity passthrough instrumented with
// start/stop/per-value callbacks. A panicking or erroring callback is
// routed to the engine's unhandled-error sink, never downstream (spec
// §4.8: debug-lifecycle callback exceptions never reach observers).
type DebugLifecycle[A any] struct {
	OnStart func()
	OnStop  func()
	OnValue func(Try[A])
}

// Debug wires lifecycle instrumentation onto a passthrough copy of
// parent without altering what flows downstream.
func Debug[A any](parent *Stream[A], hooks DebugLifecycle[A]) *Stream[A] {
	out := newStream[A](parent.engine, parent.rank()+1)
	link := enqueueOnFire{b: &out.base}
	link.self = out
	out.fire = func(tx *Transaction) {
		if !parent.firedInTx(tx) {
			return
		}
		t := parent.pendingValue()
		if hooks.OnValue != nil {
			invokeDebugHook(out.engine, func() { hooks.OnValue(t) })
		}
		out.fireValueInTx(tx, t)
	}
	out.onStart = func() {
		parent.addChild(link)
		if hooks.OnStart != nil {
			invokeDebugHook(out.engine, hooks.OnStart)
		}
	}
	out.onStop = func() {
		parent.removeChild(link)
		if hooks.OnStop != nil {
			invokeDebugHook(out.engine, hooks.OnStop)
		}
	}
	return out
}

func invokeDebugHook(e *Engine, hook func()) {
	defer func() {
		if r := recover(); r != nil {
			e.reportUnhandled(&UnhandledError{Cause: panicError(r)})
		}
	}()
	hook()
}
