package reactive

import "testing"

func TestStreamObserveDoesNotReplay(t *testing.T) {
	e := NewEngine()
	src := &manualSource[int]{}
	s := NewSourceStream[int](e, src)

	src.Fire(1) // fired with no observers attached: nobody sees it

	var got []int
	sub := s.Observe(Observer[int]{OnNext: func(v int) { got = append(got, v) }})
	defer sub.Kill()

	if len(got) != 0 {
		t.Fatalf("new stream observer saw a replay: %v", got)
	}

	src.Fire(2)
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("got %v, want [2]", got)
	}
}

func TestStreamDeliversOnceToEachObserver(t *testing.T) {
	e := NewEngine()
	src := &manualSource[int]{}
	s := NewSourceStream[int](e, src)

	var a, b []int
	sub1 := s.Observe(Observer[int]{OnNext: func(v int) { a = append(a, v) }})
	sub2 := s.Observe(Observer[int]{OnNext: func(v int) { b = append(b, v) }})
	defer sub1.Kill()
	defer sub2.Kill()

	src.Fire(9)

	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("a=%v b=%v, each should see exactly one emission", a, b)
	}
}

func TestStreamRefcountStopsSourceOnLastKill(t *testing.T) {
	e := NewEngine()
	src := &manualSource[int]{}
	s := NewSourceStream[int](e, src)

	o1 := s.Observe(Observer[int]{})
	o2 := s.Observe(Observer[int]{})

	o1.Kill()
	if !s.isStarted() {
		t.Fatal("stream stopped after only one of two observers removed")
	}

	o2.Kill()
	if s.isStarted() {
		t.Fatal("stream still started after both observers removed")
	}

	// Kill is idempotent.
	o2.Kill()
}

// TestTieBreakFollowsSubscribeOrderNotConstructOrder exercises the exact
// divergence spec.md calls out: ties at the same rank are broken by
// FIFO insertion order into the pending queue, which tracks *subscribe*
// order (when a node's onStart adds it as a child of its parent), not
// the order in which the nodes were constructed.
func TestTieBreakFollowsSubscribeOrderNotConstructOrder(t *testing.T) {
	e := NewEngine()
	src := &manualSource[int]{}
	p := NewSourceStream[int](e, src)

	// Constructed in reverse of subscribe order below.
	x2 := Map(p, func(v int) int { return v })
	x1 := Map(p, func(v int) int { return v })

	var fireOrder []string
	sub1 := x1.Observe(Observer[int]{OnNext: func(int) { fireOrder = append(fireOrder, "x1") }})
	sub2 := x2.Observe(Observer[int]{OnNext: func(int) { fireOrder = append(fireOrder, "x2") }})
	defer sub1.Kill()
	defer sub2.Kill()

	src.Fire(1)

	if len(fireOrder) != 2 || fireOrder[0] != "x1" || fireOrder[1] != "x2" {
		t.Fatalf("got fire order %v, want [x1 x2] (subscribe order, not construction order)", fireOrder)
	}
}

func TestStreamUnhandledErrorWithNoOnError(t *testing.T) {
	e := NewEngine()
	var reported error
	e = NewEngine(WithErrorSink(func(err error) { reported = err }))

	src := &manualSource[int]{}
	s := NewSourceStream[int](e, src)
	sub := s.Observe(Observer[int]{}) // no OnError
	defer sub.Kill()

	boom := errTest("boom")
	src.FireErr(boom)

	if reported == nil {
		t.Fatal("expected error reported to sink when OnError is nil")
	}
}
