// Package poll provides the bounded-time polling loop every wait in the
// runtime is built on.
//
// A poll repeatedly fetches a fresh value and tests it with a predicate. It
// stops as soon as the predicate accepts, when the timeout elapses, or when
// the attempt budget runs out. The interval between attempts is constant;
// call sites and their historical timeouts are tuned against that.
package poll

import (
	"errors"
	"time"

	"github.com/entrhq/uirunner/pkg/failure"
)

// DefaultInterval is used when a Spec leaves Interval at zero.
const DefaultInterval = 250 * time.Millisecond

// ErrUnbounded is returned for a Spec with neither a timeout nor an attempt
// budget.
var ErrUnbounded = errors.New("poll: spec has neither timeout nor max attempts")

// Clock abstracts time so loops can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Exhaustion describes the state of a poll when its bounds ran out.
type Exhaustion[T any] struct {
	Operation string
	Timeout   time.Duration
	Elapsed   time.Duration
	Attempts  int
	// Last is the last produced value; HasValue is false when every attempt
	// ended in a not-ready error.
	Last     T
	HasValue bool
	// LastErr is the most recent absorbed not-ready error.
	LastErr error
}

// Failure converts the exhaustion into the default TimeoutFailure.
func (e Exhaustion[T]) Failure() *failure.TimeoutFailure {
	tf := &failure.TimeoutFailure{
		Operation: e.Operation,
		Timeout:   e.Timeout,
		Elapsed:   e.Elapsed,
		Attempts:  e.Attempts,
		Err:       e.LastErr,
	}
	if e.HasValue {
		tf.LastValue = e.Last
	}
	return tf
}

// Spec configures a single poll.
type Spec[T any] struct {
	// Produce fetches the current value. Errors classified by
	// failure.IsNotReady count as "not accepted yet"; any other error ends
	// the poll immediately.
	Produce func() (T, error)

	// Accept decides whether a produced value ends the poll. A nil Accept
	// accepts the first value produced without error.
	Accept func(T) bool

	// Timeout bounds total elapsed time. Zero disables the time bound.
	Timeout time.Duration

	// Interval is the constant sleep between attempts.
	Interval time.Duration

	// MaxAttempts bounds the number of Produce calls. Zero disables it.
	MaxAttempts int

	// OnExhausted, when set, decides the outcome once the bounds run out.
	OnExhausted func(Exhaustion[T]) (T, error)

	// OnWait is told about every sleep between attempts.
	OnWait func(d time.Duration)

	// Operation names the poll in failure messages.
	Operation string

	Clock Clock
}

// Poll runs spec until its value is accepted or its bounds are exhausted.
func Poll[T any](spec Spec[T]) (T, error) {
	var zero T
	if spec.Timeout <= 0 && spec.MaxAttempts <= 0 {
		return zero, ErrUnbounded
	}
	clock := spec.Clock
	if clock == nil {
		clock = RealClock
	}
	interval := spec.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	start := clock.Now()
	ex := Exhaustion[T]{Operation: spec.Operation, Timeout: spec.Timeout}
	for {
		ex.Attempts++
		value, err := spec.Produce()
		switch {
		case err == nil:
			if spec.Accept == nil || spec.Accept(value) {
				return value, nil
			}
			ex.Last = value
			ex.HasValue = true
		case failure.IsNotReady(err):
			ex.LastErr = err
		default:
			return zero, err
		}

		ex.Elapsed = clock.Now().Sub(start)
		if spec.Timeout > 0 && ex.Elapsed >= spec.Timeout {
			break
		}
		if spec.MaxAttempts > 0 && ex.Attempts >= spec.MaxAttempts {
			break
		}

		clock.Sleep(interval)
		if spec.OnWait != nil {
			spec.OnWait(interval)
		}
	}

	if spec.OnExhausted != nil {
		return spec.OnExhausted(ex)
	}
	return zero, ex.Failure()
}

// Until is the common shape of Poll: produce, accept, timeout, interval.
func Until[T any](produce func() (T, error), accept func(T) bool, timeout, interval time.Duration) (T, error) {
	return Poll(Spec[T]{
		Produce:  produce,
		Accept:   accept,
		Timeout:  timeout,
		Interval: interval,
	})
}
