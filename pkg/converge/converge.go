// Package converge repeats a UI write until the control echoes the written
// value back.
//
// A failed verification redoes the whole write rather than re-reading, since
// a half-applied write (half-typed text, a dropdown that closed early) cannot
// be fixed by waiting. The write always happens at least once, even when the
// control already shows the expected value.
package converge

import (
	"time"

	"github.com/entrhq/uirunner/pkg/failure"
	"github.com/entrhq/uirunner/pkg/poll"
)

// Defaults used by Value when a bound is left at zero.
const (
	DefaultDelay       = 500 * time.Millisecond
	DefaultMaxAttempts = 5
	DefaultTimeout     = 10 * time.Second
)

// Exhaustion describes a convergence loop that ran out of bounds.
type Exhaustion struct {
	Operation string
	Attempts  int
	Elapsed   time.Duration
	// LastErr is the last not-ready error raised by Apply or Verify.
	LastErr error
}

// Spec configures RepeatUntil.
type Spec struct {
	// Apply performs the write: clear, click, type, select.
	Apply func() error
	// Verify re-reads the control and reports whether it converged.
	Verify func() (bool, error)

	// Timeout and MaxAttempts both bound the loop; whichever is reached
	// first stops it. Zero disables a bound, but not both.
	Timeout     time.Duration
	MaxAttempts int
	// Delay is the fixed pause before the write is redone.
	Delay time.Duration

	// OnExhausted decides the outcome once the bounds run out. The default
	// is a *failure.ConvergenceFailure.
	OnExhausted func(Exhaustion) error
	OnWait      func(time.Duration)
	Operation   string
	Clock       poll.Clock
}

// RepeatUntil applies then verifies until verification succeeds or the
// bounds are exhausted. Not-ready errors from Apply or Verify, such as a
// stale handle, count as a failed attempt; any other error is returned
// immediately.
func RepeatUntil(spec Spec) error {
	_, err := poll.Poll(poll.Spec[bool]{
		Produce: func() (bool, error) {
			if err := spec.Apply(); err != nil {
				return false, err
			}
			return spec.Verify()
		},
		Accept:      func(ok bool) bool { return ok },
		Timeout:     spec.Timeout,
		Interval:    spec.Delay,
		MaxAttempts: spec.MaxAttempts,
		OnWait:      spec.OnWait,
		Operation:   spec.Operation,
		Clock:       spec.Clock,
		OnExhausted: func(ex poll.Exhaustion[bool]) (bool, error) {
			e := Exhaustion{
				Operation: spec.Operation,
				Attempts:  ex.Attempts,
				Elapsed:   ex.Elapsed,
				LastErr:   ex.LastErr,
			}
			if spec.OnExhausted != nil {
				return false, spec.OnExhausted(e)
			}
			return false, &failure.ConvergenceFailure{
				Field:    e.Operation,
				Attempts: e.Attempts,
				Elapsed:  e.Elapsed,
				Err:      e.LastErr,
			}
		},
	})
	return err
}

// ValueSpec is the usual shape of a field write: apply, read back, compare
// against the expected text.
type ValueSpec struct {
	Field    string
	Expected string

	Apply func() error
	Read  func() (string, error)
	// Equal compares expected and observed values. Defaults to exact match.
	Equal func(expected, actual string) bool

	Timeout     time.Duration
	MaxAttempts int
	Delay       time.Duration
	OnWait      func(time.Duration)
	Clock       poll.Clock
}

// Value converges a single field. Exhaustion yields a
// *failure.ConvergenceFailure carrying the expected and last observed value.
// Zero bounds fall back to DefaultTimeout, DefaultMaxAttempts and
// DefaultDelay.
func Value(spec ValueSpec) error {
	equal := spec.Equal
	if equal == nil {
		equal = func(expected, actual string) bool { return expected == actual }
	}
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attempts := spec.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	delay := spec.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}

	var last string
	return RepeatUntil(Spec{
		Apply: spec.Apply,
		Verify: func() (bool, error) {
			actual, err := spec.Read()
			if err != nil {
				return false, err
			}
			last = actual
			return equal(spec.Expected, actual), nil
		},
		Timeout:     timeout,
		MaxAttempts: attempts,
		Delay:       delay,
		OnWait:      spec.OnWait,
		Operation:   spec.Field,
		Clock:       spec.Clock,
		OnExhausted: func(ex Exhaustion) error {
			return &failure.ConvergenceFailure{
				Field:    spec.Field,
				Expected: spec.Expected,
				Actual:   last,
				Attempts: ex.Attempts,
				Elapsed:  ex.Elapsed,
				Err:      ex.LastErr,
			}
		},
	})
}
