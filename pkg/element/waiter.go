// Package element waits for DOM nodes to reach a usable state.
//
// Every wait is a poll over a fresh FindElements call. "No match",
// "several matches" and stale handles keep the wait going; only genuine
// driver errors such as a malformed locator end it early. Exhaustion is
// reported in terms of how far the node got: never resolved is a
// NotFoundFailure, resolved but never visible is a TimeoutFailure, visible
// but never clickable is an InteractionFailure.
package element

import (
	"fmt"
	"time"

	"github.com/entrhq/uirunner/pkg/browser"
	"github.com/entrhq/uirunner/pkg/failure"
	"github.com/entrhq/uirunner/pkg/logging"
	"github.com/entrhq/uirunner/pkg/poll"
)

// Timeouts per operation class.
const (
	ShortTimeout      = 2 * time.Second
	DefaultTimeout    = 10 * time.Second
	NavigationTimeout = 30 * time.Second
)

// TransitionRecorder is told how long the caller spent blocked waiting for
// the UI.
type TransitionRecorder interface {
	AddTransition(d time.Duration)
}

// Waiter resolves locators against a live driver.
type Waiter struct {
	driver            browser.Driver
	interval          time.Duration
	timeout           time.Duration
	navigationTimeout time.Duration
	clock             poll.Clock
	logger            *logging.Logger
	transitions       TransitionRecorder
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithInterval sets the constant poll interval.
func WithInterval(d time.Duration) Option {
	return func(w *Waiter) { w.interval = d }
}

// WithTimeout sets the timeout used when a wait is called with zero.
func WithTimeout(d time.Duration) Option {
	return func(w *Waiter) { w.timeout = d }
}

// WithNavigationTimeout sets the default timeout for WaitURL.
func WithNavigationTimeout(d time.Duration) Option {
	return func(w *Waiter) { w.navigationTimeout = d }
}

// WithClock injects a clock.
func WithClock(c poll.Clock) Option {
	return func(w *Waiter) { w.clock = c }
}

// WithLogger sets the logger used for wait diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(w *Waiter) { w.logger = l }
}

// WithTransitionRecorder reports every poll sleep to r.
func WithTransitionRecorder(r TransitionRecorder) Option {
	return func(w *Waiter) { w.transitions = r }
}

// NewWaiter creates a Waiter over driver.
func NewWaiter(driver browser.Driver, opts ...Option) *Waiter {
	w := &Waiter{
		driver:            driver,
		interval:          poll.DefaultInterval,
		timeout:           DefaultTimeout,
		navigationTimeout: NavigationTimeout,
		clock:             poll.RealClock,
		logger:            logging.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Driver returns the underlying driver.
func (w *Waiter) Driver() browser.Driver {
	return w.driver
}

// Clock returns the clock the waiter polls with.
func (w *Waiter) Clock() poll.Clock {
	return w.clock
}

type stage int

const (
	stageMissing stage = iota
	stageAvailable
	stageVisible
	stageClickable
)

func (s stage) String() string {
	switch s {
	case stageAvailable:
		return "available"
	case stageVisible:
		return "visible"
	case stageClickable:
		return "clickable"
	default:
		return "missing"
	}
}

// progress tracks the furthest stage a locator reached across attempts.
type progress struct {
	best   stage
	reason string
}

func (p *progress) note(s stage, reason string) {
	if s >= p.best {
		p.best = s
		p.reason = reason
	}
}

// WaitAvailable waits until loc resolves to exactly one attached node.
func (w *Waiter) WaitAvailable(loc browser.Locator, timeout time.Duration) (browser.Element, error) {
	return w.waitFor(loc, stageAvailable, timeout)
}

// WaitVisible waits until loc resolves to exactly one displayed node.
func (w *Waiter) WaitVisible(loc browser.Locator, timeout time.Duration) (browser.Element, error) {
	return w.waitFor(loc, stageVisible, timeout)
}

// WaitClickable waits until loc resolves to exactly one displayed, enabled,
// unobscured node.
func (w *Waiter) WaitClickable(loc browser.Locator, timeout time.Duration) (browser.Element, error) {
	return w.waitFor(loc, stageClickable, timeout)
}

func (w *Waiter) timeoutOr(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return w.timeout
	}
	return timeout
}

func (w *Waiter) onWait(d time.Duration) {
	if w.transitions != nil {
		w.transitions.AddTransition(d)
	}
}

func (w *Waiter) waitFor(loc browser.Locator, target stage, timeout time.Duration) (browser.Element, error) {
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", failure.ErrInvalidLocator, err)
	}
	timeout = w.timeoutOr(timeout)
	prog := &progress{reason: "no match"}

	el, err := poll.Poll(poll.Spec[browser.Element]{
		Produce: func() (browser.Element, error) {
			return w.inspect(loc, target, prog)
		},
		Accept:    func(el browser.Element) bool { return el != nil },
		Timeout:   timeout,
		Interval:  w.interval,
		OnWait:    w.onWait,
		Operation: fmt.Sprintf("wait %s %s", target, loc),
		Clock:     w.clock,
		OnExhausted: func(ex poll.Exhaustion[browser.Element]) (browser.Element, error) {
			return nil, exhausted(loc, target, prog, ex)
		},
	})
	if err != nil {
		w.logger.Warnf("wait %s %s failed: %v", target, loc, err)
		return nil, err
	}
	w.logger.Debugf("%s is %s", loc, target)
	return el, nil
}

// inspect runs one attempt. It returns a nil element when the locator has
// not reached target yet.
func (w *Waiter) inspect(loc browser.Locator, target stage, prog *progress) (browser.Element, error) {
	matches, err := w.attached(loc)
	if err != nil {
		if failure.IsNotReady(err) {
			prog.note(stageMissing, err.Error())
		}
		return nil, err
	}
	switch len(matches) {
	case 0:
		prog.note(stageMissing, "no match")
		return nil, nil
	case 1:
	default:
		prog.note(stageMissing, fmt.Sprintf("%d matches", len(matches)))
		return nil, nil
	}

	el := matches[0]
	prog.note(stageAvailable, "attached")
	if target == stageAvailable {
		return el, nil
	}

	shown, err := el.IsDisplayed()
	if err != nil {
		return nil, err
	}
	if !shown {
		prog.note(stageAvailable, "not displayed")
		return nil, nil
	}
	prog.note(stageVisible, "displayed")
	if target == stageVisible {
		return el, nil
	}

	enabled, err := el.IsEnabled()
	if err != nil {
		return nil, err
	}
	if !enabled {
		prog.note(stageVisible, "disabled")
		return nil, nil
	}
	obscured, err := el.IsObscured()
	if err != nil {
		return nil, err
	}
	if obscured {
		prog.note(stageVisible, "obscured by another element")
		return nil, nil
	}
	return el, nil
}

// attached returns the live, attached matches of loc. Handles that go stale
// while being inspected are skipped.
func (w *Waiter) attached(loc browser.Locator) ([]browser.Element, error) {
	elems, err := w.driver.FindElements(loc)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	out := make([]browser.Element, 0, len(elems))
	for _, el := range elems {
		ok, err := el.IsAttached()
		if err != nil {
			if failure.IsNotReady(err) {
				continue
			}
			return nil, fmt.Errorf("inspect %s: %w", loc, err)
		}
		if ok {
			out = append(out, el)
		}
	}
	return out, nil
}

func exhausted(loc browser.Locator, target stage, prog *progress, ex poll.Exhaustion[browser.Element]) error {
	switch {
	case prog.best == stageMissing:
		return &failure.NotFoundFailure{
			Locator:  loc.String(),
			Timeout:  ex.Timeout,
			Elapsed:  ex.Elapsed,
			Attempts: ex.Attempts,
			Reason:   prog.reason,
			Err:      ex.LastErr,
		}
	case target == stageClickable && prog.best == stageVisible:
		return &failure.InteractionFailure{
			Locator:  loc.String(),
			Action:   "click",
			Reason:   fmt.Sprintf("%s after %v", prog.reason, ex.Elapsed.Round(time.Millisecond)),
			Attempts: ex.Attempts,
			Err:      ex.LastErr,
		}
	default:
		tf := ex.Failure()
		tf.LastValue = prog.reason
		return tf
	}
}

// TryFind looks loc up once. A missing node is reported as ok == false, not
// as an error; only genuine failures such as a malformed locator are
// returned. When several nodes match, the first attached one is returned.
func (w *Waiter) TryFind(loc browser.Locator) (browser.Element, bool, error) {
	if err := loc.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", failure.ErrInvalidLocator, err)
	}
	matches, err := w.attached(loc)
	if err != nil {
		if failure.IsNotReady(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(matches) == 0 {
		return nil, false, nil
	}
	return matches[0], true, nil
}

// WaitAll waits until loc resolves to at least one attached node and
// returns all of them.
func (w *Waiter) WaitAll(loc browser.Locator, timeout time.Duration) ([]browser.Element, error) {
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", failure.ErrInvalidLocator, err)
	}
	timeout = w.timeoutOr(timeout)
	return poll.Poll(poll.Spec[[]browser.Element]{
		Produce:   func() ([]browser.Element, error) { return w.attached(loc) },
		Accept:    func(els []browser.Element) bool { return len(els) > 0 },
		Timeout:   timeout,
		Interval:  w.interval,
		OnWait:    w.onWait,
		Operation: fmt.Sprintf("wait all %s", loc),
		Clock:     w.clock,
		OnExhausted: func(ex poll.Exhaustion[[]browser.Element]) ([]browser.Element, error) {
			return nil, &failure.NotFoundFailure{
				Locator:  loc.String(),
				Timeout:  ex.Timeout,
				Elapsed:  ex.Elapsed,
				Attempts: ex.Attempts,
				Reason:   "no match",
				Err:      ex.LastErr,
			}
		},
	})
}

// WaitGone waits until no displayed node matches loc, e.g. for a loading
// overlay to disappear.
func (w *Waiter) WaitGone(loc browser.Locator, timeout time.Duration) error {
	if err := loc.Validate(); err != nil {
		return fmt.Errorf("%w: %v", failure.ErrInvalidLocator, err)
	}
	timeout = w.timeoutOr(timeout)
	_, err := poll.Poll(poll.Spec[int]{
		Produce: func() (int, error) {
			matches, err := w.attached(loc)
			if err != nil {
				return 0, err
			}
			shown := 0
			for _, el := range matches {
				ok, err := el.IsDisplayed()
				if err != nil {
					if failure.IsNotReady(err) {
						continue
					}
					return 0, err
				}
				if ok {
					shown++
				}
			}
			return shown, nil
		},
		Accept:    func(n int) bool { return n == 0 },
		Timeout:   timeout,
		Interval:  w.interval,
		OnWait:    w.onWait,
		Operation: fmt.Sprintf("wait gone %s", loc),
		Clock:     w.clock,
	})
	if err != nil {
		w.logger.Warnf("%s still displayed: %v", loc, err)
	}
	return err
}

// WaitURL waits until the current page URL matches pattern. A zero timeout
// uses the navigation timeout.
func (w *Waiter) WaitURL(pattern string, timeout time.Duration) (string, error) {
	p, err := browser.CompileURLPattern(pattern)
	if err != nil {
		return "", err
	}
	if timeout <= 0 {
		timeout = w.navigationTimeout
	}
	url, err := poll.Poll(poll.Spec[string]{
		Produce:   w.driver.CurrentURL,
		Accept:    p.Match,
		Timeout:   timeout,
		Interval:  w.interval,
		OnWait:    w.onWait,
		Operation: fmt.Sprintf("wait url %s", p),
		Clock:     w.clock,
	})
	if err != nil {
		w.logger.Warnf("url never matched %s: %v", p, err)
		return "", err
	}
	w.logger.Debugf("url %s matched %s", url, p)
	return url, nil
}
