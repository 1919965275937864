package command

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/uirunner/pkg/failure"
	"github.com/entrhq/uirunner/pkg/poll"
)

// DefaultThinkTime is the pause before every command unless overridden.
const DefaultThinkTime = 2 * time.Second

// Recorder receives every finished command exactly once.
type Recorder interface {
	Record(cmd Command)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(Command)

func (f RecorderFunc) Record(cmd Command) { f(cmd) }

// Observer is notified around every command. Observers see copies; they
// cannot alter the record.
type Observer interface {
	CommandStarted(cmd Command)
	CommandFinished(cmd Command)
}

// Runner executes commands against one session. It is not safe for
// concurrent use: a session has a single in-flight command.
type Runner struct {
	recorder  Recorder
	clock     poll.Clock
	thinkTime time.Duration
	observers []Observer

	current *Command
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock injects a clock for think time and timestamps.
func WithClock(c poll.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithDefaultThinkTime overrides DefaultThinkTime.
func WithDefaultThinkTime(d time.Duration) Option {
	return func(r *Runner) { r.thinkTime = d }
}

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

// NewRunner creates a Runner that hands finished commands to rec.
func NewRunner(rec Recorder, opts ...Option) *Runner {
	r := &Runner{
		recorder:  rec,
		clock:     poll.RealClock,
		thinkTime: DefaultThinkTime,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddObserver registers o for subsequent commands.
func (r *Runner) AddObserver(o Observer) {
	r.observers = append(r.observers, o)
}

// AddTransition charges d to the in-flight command's transition time. It is
// a no-op between commands.
func (r *Runner) AddTransition(d time.Duration) {
	if r.current != nil {
		r.current.TransitionTime += d
	}
}

// ThinkTime returns the default think time.
func (r *Runner) ThinkTime() time.Duration {
	return r.thinkTime
}

type execConfig struct {
	thinkTime time.Duration
	attempt   int
}

// ExecOption adjusts a single execution.
type ExecOption func(*execConfig)

// WithThinkTime overrides the think time for one command.
func WithThinkTime(d time.Duration) ExecOption {
	return func(c *execConfig) { c.thinkTime = d }
}

// WithAttempt marks the execution as the n-th attempt of a caller-driven
// retry loop. The Runner itself never retries.
func WithAttempt(n int) ExecOption {
	return func(c *execConfig) {
		if n > 0 {
			c.attempt = n
		}
	}
}

// Execute runs work as a named command. The returned value and error are
// exactly what work returned; the command is recorded either way. A panic in
// work is recorded as a failure and then re-raised.
func Execute[T any](r *Runner, name string, work func() (T, error), opts ...ExecOption) (T, error) {
	cfg := execConfig{thinkTime: r.thinkTime, attempt: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	cmd := &Command{
		ID:        uuid.NewString(),
		Name:      name,
		Attempts:  cfg.attempt,
		Status:    StatusCreated,
		ThinkTime: cfg.thinkTime,
	}
	cmd.Start = r.clock.Now()
	outer := r.current
	r.current = cmd

	cmd.Status = StatusRunning
	for _, o := range r.observers {
		o.CommandStarted(*cmd)
	}

	done := false
	defer func() {
		if done {
			return
		}
		p := recover()
		if p == nil {
			r.finish(cmd, outer, fmt.Errorf("command %q exited without returning", name))
			return
		}
		r.finish(cmd, outer, panicError(p))
		panic(p)
	}()

	if cfg.thinkTime > 0 {
		r.clock.Sleep(cfg.thinkTime)
	}
	value, err := work()
	done = true
	r.finish(cmd, outer, err)
	return value, err
}

// Do runs work as a named command that produces no value.
func (r *Runner) Do(name string, work func() error, opts ...ExecOption) error {
	_, err := Execute(r, name, func() (struct{}, error) {
		return struct{}{}, work()
	}, opts...)
	return err
}

func (r *Runner) finish(cmd *Command, outer *Command, err error) {
	cmd.Stop = r.clock.Now()
	cmd.ExecutionTime = cmd.Stop.Sub(cmd.Start) - cmd.ThinkTime
	if cmd.ExecutionTime < 0 {
		cmd.ExecutionTime = 0
	}
	if err != nil {
		cmd.Status = StatusFailed
		cmd.Failure = &Failure{
			Kind:    failure.KindOf(err),
			Message: err.Error(),
			Cause:   err,
		}
	} else {
		cmd.Status = StatusSucceeded
	}
	r.current = outer

	final := *cmd
	if r.recorder != nil {
		r.recorder.Record(final)
	}
	for _, o := range r.observers {
		o.CommandFinished(final)
	}
}

// PanicError carries a value recovered from a panicking command.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func panicError(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return &PanicError{Value: p}
}
