package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/uirunner/pkg/command"
	"github.com/entrhq/uirunner/pkg/failure"
	"github.com/entrhq/uirunner/pkg/field"
	"github.com/entrhq/uirunner/pkg/session"
)

// Result counts what a run did.
type Result struct {
	Executed int
	Failed   int
	// Skipped steps were never started, either after a failure or because
	// the run was cancelled.
	Skipped int
}

// Runner executes scripts against a session.
type Runner struct {
	session  *session.Context
	registry *field.Registry
	env      field.Env
}

// NewRunner returns a runner using the built-in field handlers.
func NewRunner(s *session.Context) *Runner {
	return &Runner{
		session:  s,
		registry: field.NewRegistry(),
		env:      field.EnvFor(s),
	}
}

// Registry returns the field registry, for registering custom handlers.
func (r *Runner) Registry() *field.Registry {
	return r.registry
}

// Run executes script step by step. It returns the first step failure, or
// ctx's error when cancelled between steps. Every started step is recorded
// in the session whatever the outcome.
func (r *Runner) Run(ctx context.Context, script *Script) (Result, error) {
	var (
		res   Result
		first error
	)
	steps := script.Steps
	if script.URL != "" {
		steps = append([]Step{{Name: "Open " + script.URL, Action: ActionNavigate, Value: script.URL}}, steps...)
	}

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			res.Skipped += len(steps) - i
			if first == nil {
				first = err
			}
			break
		}

		res.Executed++
		err := r.Step(step)
		if err == nil {
			continue
		}
		res.Failed++
		if first == nil {
			first = fmt.Errorf("step %d (%s): %w", i+1, step.Title(), err)
		}
		if !script.ContinueOnFailure {
			res.Skipped += len(steps) - i - 1
			break
		}
	}
	return res, first
}

// Step runs a single step as a command.
func (r *Runner) Step(step Step) error {
	var opts []command.ExecOption
	if step.ThinkTime != nil {
		opts = append(opts, command.WithThinkTime(*step.ThinkTime))
	}
	return r.session.Do(step.Title(), func() error {
		return r.perform(step)
	}, opts...)
}

func (r *Runner) perform(step Step) error {
	w := r.session.Waiter()
	switch step.Action {
	case ActionNavigate:
		return r.session.Driver().Navigate(step.Value)
	case ActionWaitURL:
		_, err := w.WaitURL(step.Value, step.Timeout)
		return err
	case ActionSetField:
		b, err := r.bind(step)
		if err != nil {
			return err
		}
		return b.Set(step.Value)
	case ActionAssertField:
		b, err := r.bind(step)
		if err != nil {
			return err
		}
		got, err := b.Get()
		if err != nil {
			return err
		}
		if !strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(step.Value)) {
			return fmt.Errorf("field %s shows %q, want %q", b.Field.Name, got, step.Value)
		}
		return nil
	}

	loc, err := step.Target.Locator()
	if err != nil {
		return err
	}
	switch step.Action {
	case ActionWaitAvailable:
		_, err = w.WaitAvailable(loc, step.Timeout)
	case ActionWaitVisible:
		_, err = w.WaitVisible(loc, step.Timeout)
	case ActionWaitClickable:
		_, err = w.WaitClickable(loc, step.Timeout)
	case ActionWaitGone:
		err = w.WaitGone(loc, step.Timeout)
	case ActionClick:
		el, werr := w.WaitClickable(loc, step.Timeout)
		if werr != nil {
			return werr
		}
		err = failure.ForAction(loc.String(), "click", el.Click())
	case ActionType:
		el, werr := w.WaitClickable(loc, step.Timeout)
		if werr != nil {
			return werr
		}
		if err = el.Clear(); err != nil {
			return failure.ForAction(loc.String(), "clear", err)
		}
		err = failure.ForAction(loc.String(), "type", el.SendKeys(step.Value))
	default:
		err = fmt.Errorf("unknown action %q", step.Action)
	}
	return err
}

func (r *Runner) bind(step Step) (*field.Binding, error) {
	f, err := step.Field.Field()
	if err != nil {
		return nil, err
	}
	env := r.env
	if step.Timeout > 0 {
		env.Timeout = step.Timeout
	}
	return r.registry.Bind(f, env)
}
