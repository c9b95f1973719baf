package reactive

import "testing"

func TestSample2CombinesTriggerAndTwoSignals(t *testing.T) {
	e := NewEngine()
	triggerSrc := &manualSource[string]{}
	trigger := NewSourceStream[string](e, triggerSrc)
	name := NewVar(e, "alice")
	age := NewVar(e, 30)

	out := Sample2(trigger, name.Signal, age.Signal, func(evt string, n string, a int) string {
		return evt + ":" + n
	})

	var got []string
	sub := out.Observe(Observer[string]{OnNext: func(v string) { got = append(got, v) }})
	defer sub.Kill()

	e.NewTransaction(func(tx *Transaction) { name.Set(tx, "bob") })
	if len(got) != 0 {
		t.Fatalf("updating a sampled signal alone fired sample2: %v", got)
	}

	triggerSrc.Fire("click")
	if len(got) != 1 || got[0] != "click:bob" {
		t.Fatalf("got %v, want [click:bob]", got)
	}
}

func TestWithLatestFromPairsTriggerWithSampledValue(t *testing.T) {
	e := NewEngine()
	triggerSrc := &manualSource[int]{}
	trigger := NewSourceStream[int](e, triggerSrc)
	sig := NewVar(e, "init")

	out := WithLatestFrom(trigger, sig.Signal)

	var got []Pair[int, string]
	sub := out.Observe(Observer[Pair[int, string]]{OnNext: func(p Pair[int, string]) { got = append(got, p) }})
	defer sub.Kill()

	triggerSrc.Fire(1)
	if len(got) != 1 || got[0].First != 1 || got[0].Second != "init" {
		t.Fatalf("got %v, want [{1 init}]", got)
	}
}

func TestSample1ErrorFromSignalPropagates(t *testing.T) {
	e := NewEngine()
	triggerSrc := &manualSource[struct{}]{}
	trigger := NewSourceStream[struct{}](e, triggerSrc)
	sig := NewVar(e, 1)

	out := Sample1(trigger, sig.Signal, func(_ struct{}, s int) int { return s })

	var errs []error
	sub := out.Observe(Observer[int]{OnError: func(err error) { errs = append(errs, err) }})
	defer sub.Kill()

	boom := errTest("sig failed")
	e.NewTransaction(func(tx *Transaction) { sig.Fail(tx, boom) })

	triggerSrc.Fire(struct{}{})
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want one propagated error from the sampled signal", errs)
	}
}
