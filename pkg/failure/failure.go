// Package failure defines the error taxonomy shared by the polling, waiting,
// convergence and command layers.
//
// Two classes of error flow through the runtime. "Not ready" conditions
// (element not rendered yet, stale handle, control not yet interactable) are
// absorbed and retried by the polling primitives. Everything else is a
// genuine failure and propagates immediately. The typed failures below are
// what a polling primitive returns once its bounds are exhausted.
package failure

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotReady marks a condition that may resolve if the caller waits.
	ErrNotReady = errors.New("not ready")

	// ErrNoSuchElement is returned by drivers when a locator matched nothing.
	ErrNoSuchElement = errors.New("no such element")

	// ErrStaleElement is returned when a handle was detached from the DOM.
	ErrStaleElement = errors.New("stale element reference")

	// ErrNotInteractable is returned when an element exists but cannot
	// receive input yet (disabled, covered, animating).
	ErrNotInteractable = errors.New("element not interactable")

	// ErrInvalidLocator is returned for malformed selectors. Never retried.
	ErrInvalidLocator = errors.New("invalid locator")

	// ErrSessionClosed is returned once the browser session was torn down.
	ErrSessionClosed = errors.New("browser session closed")
)

// IsNotReady reports whether err belongs to the retryable "not yet
// available" class. A failure returned by an exhausted wait or convergence
// loop is final, even when it wraps the not-ready error it last absorbed.
func IsNotReady(err error) bool {
	if err == nil {
		return false
	}
	if isExhausted(err) {
		return false
	}
	if errors.Is(err, ErrInvalidLocator) || errors.Is(err, ErrSessionClosed) {
		return false
	}
	if errors.Is(err, ErrNotReady) ||
		errors.Is(err, ErrNoSuchElement) ||
		errors.Is(err, ErrStaleElement) ||
		errors.Is(err, ErrNotInteractable) {
		return true
	}
	var stale *StaleElementFailure
	return errors.As(err, &stale)
}

func isExhausted(err error) bool {
	var (
		notFound    *NotFoundFailure
		timeout     *TimeoutFailure
		convergence *ConvergenceFailure
		interaction *InteractionFailure
	)
	if errors.As(err, &notFound) || errors.As(err, &timeout) || errors.As(err, &convergence) {
		return true
	}
	return errors.As(err, &interaction) && interaction.Attempts > 0
}

// ForAction types an error raised by an element action. Stale handles become
// a *StaleElementFailure and refused input an *InteractionFailure, both still
// retryable; anything else is returned unchanged.
func ForAction(locator, action string, err error) error {
	if err == nil {
		return nil
	}
	var (
		stale       *StaleElementFailure
		interaction *InteractionFailure
	)
	if errors.As(err, &stale) || errors.As(err, &interaction) {
		return err
	}
	switch {
	case errors.Is(err, ErrStaleElement):
		return &StaleElementFailure{Locator: locator, Action: action, Err: err}
	case errors.Is(err, ErrNotInteractable):
		return &InteractionFailure{Locator: locator, Action: action, Err: err}
	}
	return err
}

// NotReady wraps a reason into an error that IsNotReady accepts.
func NotReady(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotReady)
}

// NotFoundFailure reports that a locator never resolved within its timeout.
type NotFoundFailure struct {
	Locator  string
	Timeout  time.Duration
	Elapsed  time.Duration
	Attempts int
	// Reason is the last observed reason the locator was not accepted,
	// e.g. "no match" or "3 matches".
	Reason string
	Err    error
}

func (e *NotFoundFailure) Error() string {
	msg := fmt.Sprintf("element %s not found within %v (elapsed %v, %d attempts)",
		e.Locator, e.Timeout, e.Elapsed.Round(time.Millisecond), e.Attempts)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *NotFoundFailure) Unwrap() error {
	return e.Err
}

// TimeoutFailure reports generic poll exhaustion.
type TimeoutFailure struct {
	Operation string
	Timeout   time.Duration
	Elapsed   time.Duration
	Attempts  int
	// LastValue is the last produced value, if any was produced.
	LastValue any
	// Err is the last absorbed not-ready error, if any.
	Err error
}

func (e *TimeoutFailure) Error() string {
	op := e.Operation
	if op == "" {
		op = "poll"
	}
	msg := fmt.Sprintf("%s timed out after %v (%d attempts)", op, e.Elapsed.Round(time.Millisecond), e.Attempts)
	if e.LastValue != nil {
		msg += fmt.Sprintf(", last value: %v", e.LastValue)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(", last error: %v", e.Err)
	}
	return msg
}

func (e *TimeoutFailure) Unwrap() error {
	return e.Err
}

// StaleElementFailure reports a handle that was detached mid-interaction.
type StaleElementFailure struct {
	Locator string
	Action  string
	Err     error
}

func (e *StaleElementFailure) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("element %s went stale during %s: %v", e.Locator, e.Action, e.Err)
	}
	return fmt.Sprintf("element %s went stale: %v", e.Locator, e.Err)
}

func (e *StaleElementFailure) Unwrap() error {
	return e.Err
}

// ConvergenceFailure reports a control that never echoed the written value.
type ConvergenceFailure struct {
	Field    string
	Expected string
	Actual   string
	Attempts int
	Elapsed  time.Duration
	Err      error
}

func (e *ConvergenceFailure) Error() string {
	field := e.Field
	if field == "" {
		field = "value"
	}
	return fmt.Sprintf("%s did not converge after %d attempts (%v): expected %q, last observed %q",
		field, e.Attempts, e.Elapsed.Round(time.Millisecond), e.Expected, e.Actual)
}

func (e *ConvergenceFailure) Unwrap() error {
	return e.Err
}

// InteractionFailure reports an element that was found but not usable.
type InteractionFailure struct {
	Locator string
	Action  string
	Reason  string
	// Attempts is set when a wait gave up on the element. A single refused
	// action leaves it zero.
	Attempts int
	Err      error
}

func (e *InteractionFailure) Error() string {
	msg := fmt.Sprintf("cannot %s %s", e.Action, e.Locator)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

func (e *InteractionFailure) Unwrap() error {
	return e.Err
}

// KindOf names the failure class of err for reporting.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var (
		notFound    *NotFoundFailure
		timeout     *TimeoutFailure
		stale       *StaleElementFailure
		convergence *ConvergenceFailure
		interaction *InteractionFailure
	)
	switch {
	case errors.As(err, &convergence):
		return "ConvergenceFailure"
	case errors.As(err, &notFound):
		return "NotFoundFailure"
	case errors.As(err, &interaction):
		return "InteractionFailure"
	case errors.As(err, &stale):
		return "StaleElementFailure"
	case errors.As(err, &timeout):
		return "TimeoutFailure"
	}
	return fmt.Sprintf("%T", err)
}
