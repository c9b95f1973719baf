package reactive

// Pair is the tuple type Sample2 and CombineStream-style callers use
// when there is no natural single combinator result type.
type Pair[X, Y any] struct {
	First  X
	Second Y
}

// Sample1 is sample-combine (spec §4.6) over a single sampled signal:
// it emits only when trigger fires, reading sig's current value
// synchronously at that moment. Updates to sig during the same
// transaction never trigger an emission on their own — sig is
// subscribed to with a no-op internal observer purely to keep it
// started and its value live.
func Sample1[A, S, C any](trigger *Stream[A], sig *Signal[S], f func(A, S) C) *Stream[C] {
	rank := trigger.rank()
	if sig.rank() > rank {
		rank = sig.rank()
	}
	out := newStream[C](trigger.engine, rank+1)

	triggerLink := enqueueOnFire{b: &out.base}
	triggerLink.self = out

	out.fire = func(tx *Transaction) {
		if !trigger.firedInTx(tx) {
			return
		}
		ta := trigger.pendingValue()
		ts := sig.TryNow()
		out.fireValueInTx(tx, sampleCombine2(ta, ts, f))
	}
	out.onStart = func() {
		trigger.addChild(triggerLink)
		sig.addChild(noopLink{})
	}
	out.onStop = func() {
		trigger.removeChild(triggerLink)
		sig.removeChild(noopLink{})
	}
	return out
}

// Sample2 samples two signals off a single triggering stream.
func Sample2[A, S1, S2, C any](trigger *Stream[A], sig1 *Signal[S1], sig2 *Signal[S2], f func(A, S1, S2) C) *Stream[C] {
	rank := trigger.rank()
	if sig1.rank() > rank {
		rank = sig1.rank()
	}
	if sig2.rank() > rank {
		rank = sig2.rank()
	}
	out := newStream[C](trigger.engine, rank+1)

	triggerLink := enqueueOnFire{b: &out.base}
	triggerLink.self = out

	out.fire = func(tx *Transaction) {
		if !trigger.firedInTx(tx) {
			return
		}
		ta := trigger.pendingValue()
		t1 := sig1.TryNow()
		t2 := sig2.TryNow()
		out.fireValueInTx(tx, sampleCombine3(ta, t1, t2, f))
	}
	out.onStart = func() {
		trigger.addChild(triggerLink)
		sig1.addChild(noopLink{})
		sig2.addChild(noopLink{})
	}
	out.onStop = func() {
		trigger.removeChild(triggerLink)
		sig1.removeChild(noopLink{})
		sig2.removeChild(noopLink{})
	}
	return out
}

// WithLatestFrom is Sample1 under the name most reactive libraries use
// for it; sampled values pair with the trigger's own value.
func WithLatestFrom[A, S any](trigger *Stream[A], sig *Signal[S]) *Stream[Pair[A, S]] {
	return Sample1(trigger, sig, func(a A, s S) Pair[A, S] { return Pair[A, S]{First: a, Second: s} })
}

func sampleCombine2[A, S, C any](ta Try[A], ts Try[S], f func(A, S) C) (result Try[C]) {
	if ta.IsError() {
		return Try[C]{err: ta.err}
	}
	if ts.IsError() {
		return Try[C]{err: ts.err}
	}
	defer func() {
		if r := recover(); r != nil {
			result = Try[C]{err: &CombinatorError{Cause: panicError(r)}}
		}
	}()
	return Try[C]{value: f(ta.value, ts.value)}
}

func sampleCombine3[A, S1, S2, C any](ta Try[A], t1 Try[S1], t2 Try[S2], f func(A, S1, S2) C) (result Try[C]) {
	if ta.IsError() {
		return Try[C]{err: ta.err}
	}
	if t1.IsError() {
		return Try[C]{err: t1.err}
	}
	if t2.IsError() {
		return Try[C]{err: t2.err}
	}
	defer func() {
		if r := recover(); r != nil {
			result = Try[C]{err: &CombinatorError{Cause: panicError(r)}}
		}
	}()
	return Try[C]{value: f(ta.value, t1.value, t2.value)}
}
