package reactive

import (
	"errors"
	"testing"
)

func TestCombine2FirstErrorWinsByParentOrder(t *testing.T) {
	e := NewEngine()
	a := NewVar(e, 1)
	b := NewVar(e, 2)
	c := Combine2(a.Signal, b.Signal, func(x, y int) int { return x + y })

	var errs []error
	sub := c.Observe(Observer[int]{OnError: func(err error) { errs = append(errs, err) }})
	defer sub.Kill()

	boomA := errTest("a failed")
	boomB := errTest("b failed")
	e.NewTransaction(func(tx *Transaction) {
		a.Fail(tx, boomA)
		b.Fail(tx, boomB)
	})

	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly one combined error", errs)
	}
	if !errors.Is(errs[0], error(boomA)) {
		t.Fatalf("errs[0] = %v, want parent-a's error to win", errs[0])
	}
}

func TestCombine2RankIsMaxOfParentsPlusOne(t *testing.T) {
	e := NewEngine()
	a := NewVar(e, 1)                                       // rank 1
	b := MapSignal(a.Signal, func(x int) int { return x })   // rank 2
	c := Combine2(a.Signal, b, func(x, y int) int { return x + y })

	if c.rank() != 3 {
		t.Fatalf("rank = %d, want 3 (max(1,2)+1)", c.rank())
	}
}

func TestCombineStream2WaitsForBothParentsAtLeastOnce(t *testing.T) {
	e := NewEngine()
	srcA := &manualSource[int]{}
	srcB := &manualSource[int]{}
	a := NewSourceStream[int](e, srcA)
	b := NewSourceStream[int](e, srcB)
	c := CombineStream2(a, b, func(x, y int) int { return x + y })

	var got []int
	sub := c.Observe(Observer[int]{OnNext: func(v int) { got = append(got, v) }})
	defer sub.Kill()

	srcA.Fire(1)
	if len(got) != 0 {
		t.Fatalf("got %v after only one parent fired, want no emission yet", got)
	}

	srcB.Fire(10)
	if len(got) != 1 || got[0] != 11 {
		t.Fatalf("got %v, want [11] once both parents have fired", got)
	}

	// b fires again alone: combine re-fires using a's latest remembered value.
	srcB.Fire(20)
	if len(got) != 2 || got[1] != 21 {
		t.Fatalf("got %v, want second emission 21 reusing a's latest value", got)
	}
}
