package reactive

import "testing"

func TestNewSourceSignalSeedsInitialValue(t *testing.T) {
	e := NewEngine()
	src := &manualSource[int]{}
	sig := NewSourceSignal[int](e, 99, src)

	val, err := sig.TryNow().Value()
	if err != nil || val != 99 {
		t.Fatalf("TryNow() = (%v, %v), want (99, nil) before anything fires", val, err)
	}
}

func TestNewSourceSignalStartsOnlyOnFirstObserver(t *testing.T) {
	e := NewEngine()
	started := 0
	src := &startCountingSource[int]{onStart: func() { started++ }}
	sig := NewSourceSignal[int](e, 0, src)

	if started != 0 {
		t.Fatal("source started before any observer")
	}

	sub := sig.Observe(Observer[int]{})
	if started != 1 {
		t.Fatalf("started = %d, want 1 after first observer", started)
	}

	sub2 := sig.Observe(Observer[int]{})
	defer sub2.Kill()
	if started != 1 {
		t.Fatalf("started = %d, want still 1 for a second observer", started)
	}
	sub.Kill()
}

func TestSourceHandleFireOpensItsOwnTransaction(t *testing.T) {
	e := NewEngine()
	src := &manualSource[int]{}
	s := NewSourceStream[int](e, src)

	var got []int
	sub := s.Observe(Observer[int]{OnNext: func(v int) { got = append(got, v) }})
	defer sub.Kill()

	// Fire is called outside of any NewTransaction body by the test,
	// mirroring how a real external producer (goroutine reading a
	// socket) calls it.
	src.Fire(1)
	src.Fire(2)

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v, want [1 2], each Fire call its own transaction", got)
	}
}

type startCountingSource[A any] struct {
	h       SourceHandle[A]
	onStart func()
}

func (s *startCountingSource[A]) Start(h SourceHandle[A]) {
	s.h = h
	if s.onStart != nil {
		s.onStart()
	}
}
func (s *startCountingSource[A]) Stop() {}
