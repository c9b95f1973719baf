package reactive

import (
	"errors"
	"testing"
)

func TestMapPanicBecomesCombinatorError(t *testing.T) {
	e := NewEngine()
	src := &manualSource[int]{}
	s := NewSourceStream[int](e, src)
	m := Map(s, func(v int) int {
		if v == 0 {
			panic("divide by zero")
		}
		return 100 / v
	})

	var vals []int
	var errs []error
	sub := m.Observe(Observer[int]{
		OnNext:  func(v int) { vals = append(vals, v) },
		OnError: func(err error) { errs = append(errs, err) },
	})
	defer sub.Kill()

	src.Fire(0)
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want one CombinatorError", errs)
	}
	var ce *CombinatorError
	if !errors.As(errs[0], &ce) {
		t.Fatalf("error = %v, want a *CombinatorError", errs[0])
	}

	src.Fire(10)
	if len(vals) != 1 || vals[0] != 10 {
		t.Fatalf("vals = %v, want [10] after recovery", vals)
	}
}

func TestFilterDropsAndPropagatesPredicatePanic(t *testing.T) {
	e := NewEngine()
	src := &manualSource[int]{}
	s := NewSourceStream[int](e, src)
	f := Filter(s, func(v int) bool {
		if v < 0 {
			panic("negative")
		}
		return v%2 == 0
	})

	var vals []int
	var errs []error
	sub := f.Observe(Observer[int]{
		OnNext:  func(v int) { vals = append(vals, v) },
		OnError: func(err error) { errs = append(errs, err) },
	})
	defer sub.Kill()

	src.Fire(3) // odd, dropped
	src.Fire(4) // even, kept
	if len(vals) != 1 || vals[0] != 4 {
		t.Fatalf("vals = %v, want [4]", vals)
	}

	src.Fire(-1)
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want one error from the panicking predicate", errs)
	}
}

func TestCollectThreadsStateWithoutExposingIt(t *testing.T) {
	e := NewEngine()
	src := &manualSource[int]{}
	s := NewSourceStream[int](e, src)
	running := Collect(s, 0, func(v int, sum int) (int, int) {
		next := sum + v
		return next, next
	})

	var got []int
	sub := running.Observe(Observer[int]{OnNext: func(v int) { got = append(got, v) }})
	defer sub.Kill()

	src.Fire(1)
	src.Fire(2)
	src.Fire(3)

	if len(got) != 3 || got[2] != 6 {
		t.Fatalf("got %v, want running totals ending at 6", got)
	}
}

func TestScanPreservesAccumulatorAcrossRestart(t *testing.T) {
	e := NewEngine()
	src := &manualSource[int]{}
	s := NewSourceStream[int](e, src)
	sum := Scan(s, 0, func(acc, v int) int { return acc + v })

	o1 := sum.Observe(Observer[int]{})
	src.Fire(5)
	if v, _ := sum.TryNow().Value(); v != 5 {
		t.Fatalf("sum = %v, want 5", v)
	}
	o1.Kill() // signal stops, accumulator must survive

	o2 := sum.Observe(Observer[int]{})
	defer o2.Kill()
	src.Fire(3)
	if v, _ := sum.TryNow().Value(); v != 8 {
		t.Fatalf("sum after restart = %v, want 8 (seed must not reapply)", v)
	}
}

func TestDebugHooksFireWithoutAlteringValues(t *testing.T) {
	e := NewEngine()
	src := &manualSource[int]{}
	s := NewSourceStream[int](e, src)

	var starts, stops int
	var observed []int
	d := Debug(s, DebugLifecycle[int]{
		OnStart: func() { starts++ },
		OnStop:  func() { stops++ },
		OnValue: func(t Try[int]) { v, _ := t.Value(); observed = append(observed, v) },
	})

	var got []int
	sub := d.Observe(Observer[int]{OnNext: func(v int) { got = append(got, v) }})

	src.Fire(11)
	sub.Kill()

	if starts != 1 || stops != 1 {
		t.Fatalf("starts=%d stops=%d, want 1/1", starts, stops)
	}
	if len(observed) != 1 || observed[0] != 11 {
		t.Fatalf("observed = %v, want [11]", observed)
	}
	if len(got) != 1 || got[0] != 11 {
		t.Fatalf("got = %v, debug must pass values through unchanged", got)
	}
}

func TestDebugHookPanicGoesToUnhandledSinkNotDownstream(t *testing.T) {
	var unhandled []error
	e := NewEngine(WithErrorSink(func(err error) { unhandled = append(unhandled, err) }))
	src := &manualSource[int]{}
	s := NewSourceStream[int](e, src)
	d := Debug(s, DebugLifecycle[int]{
		OnValue: func(Try[int]) { panic("boom in debug hook") },
	})

	var errs []error
	sub := d.Observe(Observer[int]{OnError: func(err error) { errs = append(errs, err) }})
	defer sub.Kill()

	src.Fire(1)

	if len(errs) != 0 {
		t.Fatalf("downstream saw errs %v, want none — debug hook panics must not propagate", errs)
	}
	if len(unhandled) != 1 {
		t.Fatalf("unhandled = %v, want one UnhandledError reported to the sink", unhandled)
	}
}
