// Package session holds the live browser session for one test run and the
// ordered history of the commands issued against it.
//
// A Context is created at run start and passed explicitly to whatever drives
// the UI. It is single-threaded: the browser handle is exclusive and commands
// run strictly in the order they are issued.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/uirunner/pkg/browser"
	"github.com/entrhq/uirunner/pkg/command"
	"github.com/entrhq/uirunner/pkg/config"
	"github.com/entrhq/uirunner/pkg/element"
	"github.com/entrhq/uirunner/pkg/failure"
	"github.com/entrhq/uirunner/pkg/logging"
	"github.com/entrhq/uirunner/pkg/poll"
)

// Context is the explicit, injected session state.
type Context struct {
	id      string
	driver  browser.Driver
	timing  config.Timing
	clock   poll.Clock
	logger  *logging.Logger
	started time.Time
	closed  bool

	history []command.Command

	runner *command.Runner
	waiter *element.Waiter
}

type options struct {
	timing    config.Timing
	clock     poll.Clock
	logger    *logging.Logger
	observers []command.Observer
}

// Option configures a Context.
type Option func(*options)

// WithTiming applies timing settings to the runner and waiter.
func WithTiming(t config.Timing) Option {
	return func(o *options) { o.timing = t }
}

// WithClock injects a clock shared by the runner and waiter.
func WithClock(c poll.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the session logger. Commands are logged through it.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver adds a command observer, e.g. telemetry.
func WithObserver(obs command.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// New creates a session around driver.
func New(driver browser.Driver, opts ...Option) *Context {
	o := options{
		timing: config.DefaultTiming(),
		clock:  poll.RealClock,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Context{
		id:     uuid.NewString(),
		driver: driver,
		timing: o.timing,
		clock:  o.clock,
	}
	c.logger = o.logger.WithFields(map[string]any{"session": c.id})
	c.started = c.clock.Now()

	runnerOpts := []command.Option{
		command.WithClock(o.clock),
		command.WithDefaultThinkTime(o.timing.ThinkTime),
		command.WithObserver(command.NewLogObserver(c.logger.Component("command"))),
	}
	for _, obs := range o.observers {
		runnerOpts = append(runnerOpts, command.WithObserver(obs))
	}
	c.runner = command.NewRunner(c, runnerOpts...)

	c.waiter = element.NewWaiter(driver,
		element.WithClock(o.clock),
		element.WithInterval(o.timing.PollInterval),
		element.WithTimeout(o.timing.DefaultTimeout),
		element.WithNavigationTimeout(o.timing.NavigationTimeout),
		element.WithLogger(c.logger.Component("waiter")),
		element.WithTransitionRecorder(c.runner),
	)

	c.logger.Infof("session started")
	return c
}

// ID returns the session identifier.
func (c *Context) ID() string {
	return c.id
}

// Driver returns the browser session handle.
func (c *Context) Driver() browser.Driver {
	return c.driver
}

// Runner returns the command runner recording into this session.
func (c *Context) Runner() *command.Runner {
	return c.runner
}

// Waiter returns the element waiter bound to this session's driver.
func (c *Context) Waiter() *element.Waiter {
	return c.waiter
}

// Timing returns the timing settings the session was built with.
func (c *Context) Timing() config.Timing {
	return c.timing
}

// Clock returns the session clock.
func (c *Context) Clock() poll.Clock {
	return c.clock
}

// Logger returns the session logger.
func (c *Context) Logger() *logging.Logger {
	return c.logger
}

// Record appends a finished command to the history.
func (c *Context) Record(cmd command.Command) {
	c.history = append(c.history, cmd)
}

// Commands returns a copy of the history in issue order.
func (c *Context) Commands() []command.Command {
	out := make([]command.Command, len(c.history))
	copy(out, c.history)
	return out
}

// Len returns the number of recorded commands.
func (c *Context) Len() int {
	return len(c.history)
}

// Do runs work as a named command in this session. After Close the command
// is still recorded, failing with failure.ErrSessionClosed.
func (c *Context) Do(name string, work func() error, opts ...command.ExecOption) error {
	return c.runner.Do(name, func() error {
		if c.closed {
			return fmt.Errorf("command %q: %w", name, failure.ErrSessionClosed)
		}
		return work()
	}, opts...)
}

// Navigate loads url as a command.
func (c *Context) Navigate(url string) error {
	return c.Do("Navigate", func() error {
		return c.driver.Navigate(url)
	})
}

// Close tears down the browser session. The history stays readable.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	summary := c.Summary()
	c.logger.Infof("session closed: %d commands, %d failed, %v elapsed",
		summary.Total, summary.Failed, summary.Elapsed.Round(time.Millisecond))
	if c.driver == nil {
		return nil
	}
	if err := c.driver.Close(); err != nil {
		return fmt.Errorf("failed to close browser session: %w", err)
	}
	return nil
}
