package reactive

// Combine2 (spec §4.5) derives a signal from two parent signals. By the
// time its fire closure runs, rank ordering already guarantees every
// parent that is going to fire this transaction has — so "ready" needs
// no separate counting, just a read of each parent's now-current value.
func Combine2[A, B, C any](pa *Signal[A], pb *Signal[B], f func(A, B) C) *Signal[C] {
	rank := pa.rank()
	if pb.rank() > rank {
		rank = pb.rank()
	}
	out := newSignal[C](pa.engine, rank+1, Try[C]{})

	link := enqueueOnFire{b: &out.base}
	link.self = out
	out.fire = func(tx *Transaction) {
		out.fireValueInTx(tx, combineTry2(pa.TryNow(), pb.TryNow(), f))
	}
	out.onStart = func() {
		pa.addChild(link)
		pb.addChild(link)
		out.current = combineTry2(pa.TryNow(), pb.TryNow(), f)
	}
	out.onStop = func() {
		pa.removeChild(link)
		pb.removeChild(link)
	}
	return out
}

func combineTry2[A, B, C any](ta Try[A], tb Try[B], f func(A, B) C) (result Try[C]) {
	// First error wins by parent order, per spec §4.5/§7: "any error-
	// input → error-output, first error wins by parent order."
	if ta.IsError() {
		return Try[C]{err: ta.err}
	}
	if tb.IsError() {
		return Try[C]{err: tb.err}
	}
	defer func() {
		if r := recover(); r != nil {
			result = Try[C]{err: &CombinatorError{Cause: panicError(r)}}
		}
	}()
	return Try[C]{value: f(ta.value, tb.value)}
}

// CombineStream2 is combine's stream×stream→stream variant. Unlike a
// signal parent, a stream parent carries no value between transactions,
// so this node keeps its own "latest observed" slot per parent — set
// the first time that parent ever fires, and from then on always
// reflecting that parent's most recent emission, whether from this
// transaction or an earlier one. No emission happens until every parent
// has fired at least once.
func CombineStream2[A, B, C any](pa *Stream[A], pb *Stream[B], f func(A, B) C) *Stream[C] {
	rank := pa.rank()
	if pb.rank() > rank {
		rank = pb.rank()
	}
	out := newStream[C](pa.engine, rank+1)

	var latestA Try[A]
	var latestB Try[B]
	var haveA, haveB bool

	linkA := fnLink{f: func(tx *Transaction) {
		latestA = pa.pendingValue()
		haveA = true
		out.enqueueIfAbsent(tx, out)
	}}
	linkB := fnLink{f: func(tx *Transaction) {
		latestB = pb.pendingValue()
		haveB = true
		out.enqueueIfAbsent(tx, out)
	}}

	out.fire = func(tx *Transaction) {
		if !haveA || !haveB {
			return
		}
		out.fireValueInTx(tx, combineTry2(latestA, latestB, f))
	}
	out.onStart = func() {
		pa.addChild(linkA)
		pb.addChild(linkB)
	}
	out.onStop = func() {
		pa.removeChild(linkA)
		pb.removeChild(linkB)
	}
	return out
}
