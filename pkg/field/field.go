package field

import (
	"fmt"
	"time"

	"github.com/entrhq/uirunner/pkg/browser"
	"github.com/entrhq/uirunner/pkg/converge"
	"github.com/entrhq/uirunner/pkg/element"
	"github.com/entrhq/uirunner/pkg/poll"
	"github.com/entrhq/uirunner/pkg/session"
)

// Field describes one logical form field and the locators of its parts.
type Field struct {
	Name string
	Kind Kind

	// Input is the main control.
	Input browser.Locator
	// Alternate is the control used when the field renders in its other
	// mode, e.g. a lookup shown as a plain dropdown.
	Alternate browser.Locator
	// Option locates a selectable result; its expression is a format
	// template receiving the value.
	Option browser.Locator
	// Display shows the committed value when the input itself does not.
	Display browser.Locator
	// Time is the time part of a DateTime field.
	Time browser.Locator

	// DateLayout and TimeLayout format DateTime values as the UI expects.
	DateLayout string
	TimeLayout string
}

// Env carries what handlers need to reach the UI.
type Env struct {
	Waiter *element.Waiter
	// Timeout bounds each element wait inside a write.
	Timeout time.Duration

	Delay       time.Duration
	MaxAttempts int
	// ConvergeTimeout bounds a whole write-and-verify loop.
	ConvergeTimeout time.Duration

	Clock  poll.Clock
	OnWait func(time.Duration)
}

// EnvFor builds an Env from a session's waiter and timing settings.
// Convergence delays count as transition time of the running command.
func EnvFor(s *session.Context) Env {
	t := s.Timing()
	return Env{
		Waiter:          s.Waiter(),
		Timeout:         t.ShortTimeout,
		Delay:           t.ConvergenceDelay,
		MaxAttempts:     t.ConvergenceAttempts,
		ConvergeTimeout: t.ConvergenceTimeout,
		Clock:           s.Clock(),
		OnWait:          s.Runner().AddTransition,
	}
}

// value builds the convergence spec shared by all handlers.
func (e Env) value(name, expected string, apply func() error, read func() (string, error)) converge.ValueSpec {
	return converge.ValueSpec{
		Field:       name,
		Expected:    expected,
		Apply:       apply,
		Read:        read,
		Timeout:     e.ConvergeTimeout,
		MaxAttempts: e.MaxAttempts,
		Delay:       e.Delay,
		OnWait:      e.OnWait,
		Clock:       e.Clock,
	}
}

// Handler writes and reads one kind of field.
type Handler interface {
	Set(env Env, f Field, value string) error
	Get(env Env, f Field) (string, error)
}

// Registry maps every Kind to its Handler.
type Registry struct {
	handlers map[Kind]Handler
}

// NewRegistry returns a registry with the built-in handlers.
func NewRegistry() *Registry {
	return &Registry{handlers: map[Kind]Handler{
		Text:      TextHandler{},
		Numeric:   NumericHandler{},
		OptionSet: OptionSetHandler{},
		Boolean:   BooleanHandler{},
		Lookup:    LookupHandler{},
		DateTime:  DateTimeHandler{},
	}}
}

// Register replaces the handler for k.
func (r *Registry) Register(k Kind, h Handler) {
	r.handlers[k] = h
}

// Resolve returns the handler for k.
func (r *Registry) Resolve(k Kind) (Handler, error) {
	h, ok := r.handlers[k]
	if !ok {
		return nil, fmt.Errorf("no handler for field kind %s", k)
	}
	return h, nil
}

// Bind resolves f's handler once and returns a Binding that uses it.
func (r *Registry) Bind(f Field, env Env) (*Binding, error) {
	h, err := r.Resolve(f.Kind)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	if err := f.Input.Validate(); err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	return &Binding{Field: f, handler: h, env: env}, nil
}

// Binding is a field with its handler resolved.
type Binding struct {
	Field   Field
	handler Handler
	env     Env
}

// Set writes value and waits until the field shows it.
func (b *Binding) Set(value string) error {
	return b.handler.Set(b.env, b.Field, value)
}

// Get reads the value the field currently shows.
func (b *Binding) Get() (string, error) {
	return b.handler.Get(b.env, b.Field)
}

// Handler returns the resolved handler.
func (b *Binding) Handler() Handler {
	return b.handler
}
