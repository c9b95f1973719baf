// Package reactive implements a glitch-free functional-reactive streams
// runtime: composable, lazy, push-based observables propagated through
// rank-ordered transactions.
//
// Two observable variants are provided: Stream, a discrete event source
// with no current value, and Signal, a continuous observable that always
// holds a latched current value and replays it synchronously to new
// observers. Both carry try-values (success or failure) rather than bare
// values, so a failing combinator or external source propagates an error
// through the same graph that carries data.
//
// All propagation happens inside a Transaction owned by an Engine. A
// transaction drains a rank-ordered queue of observables to completion
// before the engine returns control to the caller, which is what
// prevents a combine node downstream of a diamond-shaped dependency from
// ever observing a stale parent value (a "glitch").
package reactive
