// Package probe runs scripted UI checks. A script is a YAML list of steps;
// each step runs as one recorded command in a session.
package probe

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/entrhq/uirunner/pkg/browser"
	"github.com/entrhq/uirunner/pkg/field"
	"gopkg.in/yaml.v3"
)

// Action is what a step does.
type Action string

const (
	ActionNavigate      Action = "navigate"
	ActionWaitAvailable Action = "wait_available"
	ActionWaitVisible   Action = "wait_visible"
	ActionWaitClickable Action = "wait_clickable"
	ActionWaitGone      Action = "wait_gone"
	ActionWaitURL       Action = "wait_url"
	ActionClick         Action = "click"
	ActionType          Action = "type"
	ActionSetField      Action = "set_field"
	ActionAssertField   Action = "assert_field"
)

var actions = map[Action]bool{
	ActionNavigate:      true,
	ActionWaitAvailable: true,
	ActionWaitVisible:   true,
	ActionWaitClickable: true,
	ActionWaitGone:      true,
	ActionWaitURL:       true,
	ActionClick:         true,
	ActionType:          true,
	ActionSetField:      true,
	ActionAssertField:   true,
}

// Locator is the YAML form of a browser.Locator. Exactly one of CSS, XPath
// and Text is set.
type Locator struct {
	CSS   string `yaml:"css,omitempty"`
	XPath string `yaml:"xpath,omitempty"`
	Text  string `yaml:"text,omitempty"`
	Name  string `yaml:"name,omitempty"`
}

// Locator converts l, rejecting zero or several expressions.
func (l *Locator) Locator() (browser.Locator, error) {
	if l == nil {
		return browser.Locator{}, nil
	}
	var (
		loc browser.Locator
		set int
	)
	if l.CSS != "" {
		loc, set = browser.CSS(l.CSS), set+1
	}
	if l.XPath != "" {
		loc, set = browser.XPath(l.XPath), set+1
	}
	if l.Text != "" {
		loc, set = browser.Text(l.Text), set+1
	}
	if set != 1 {
		return browser.Locator{}, fmt.Errorf("locator needs exactly one of css, xpath or text (got %d)", set)
	}
	return loc.Named(l.Name), nil
}

// Field is the YAML form of a field.Field.
type Field struct {
	Name       string     `yaml:"name"`
	Kind       field.Kind `yaml:"kind"`
	Input      *Locator   `yaml:"input"`
	Alternate  *Locator   `yaml:"alternate,omitempty"`
	Option     *Locator   `yaml:"option,omitempty"`
	Display    *Locator   `yaml:"display,omitempty"`
	Time       *Locator   `yaml:"time,omitempty"`
	DateLayout string     `yaml:"date_layout,omitempty"`
	TimeLayout string     `yaml:"time_layout,omitempty"`
}

// Field converts f.
func (f *Field) Field() (field.Field, error) {
	out := field.Field{
		Name:       f.Name,
		Kind:       f.Kind,
		DateLayout: f.DateLayout,
		TimeLayout: f.TimeLayout,
	}
	parts := []struct {
		src *Locator
		dst *browser.Locator
	}{
		{f.Input, &out.Input},
		{f.Alternate, &out.Alternate},
		{f.Option, &out.Option},
		{f.Display, &out.Display},
		{f.Time, &out.Time},
	}
	for _, p := range parts {
		loc, err := p.src.Locator()
		if err != nil {
			return field.Field{}, fmt.Errorf("field %s: %w", f.Name, err)
		}
		*p.dst = loc
	}
	return out, nil
}

// Step is one scripted action.
type Step struct {
	Name   string   `yaml:"name,omitempty"`
	Action Action   `yaml:"action"`
	Target *Locator `yaml:"target,omitempty"`
	Field  *Field   `yaml:"field,omitempty"`
	// Value is typed, set or asserted; for navigate and wait_url it is the
	// URL or URL pattern.
	Value   string        `yaml:"value,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// ThinkTime overrides the session think time for this step.
	ThinkTime *time.Duration `yaml:"think_time,omitempty"`
}

// Title is the command name recorded for the step.
func (s Step) Title() string {
	if s.Name != "" {
		return s.Name
	}
	return string(s.Action)
}

// Script is a named list of steps.
type Script struct {
	Name string `yaml:"name"`
	// URL is opened before the first step when set.
	URL string `yaml:"url,omitempty"`
	// ContinueOnFailure keeps running after a failed step.
	ContinueOnFailure bool   `yaml:"continue_on_failure,omitempty"`
	Steps             []Step `yaml:"steps"`
}

// LoadScript reads a YAML script from path.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes and validates a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every step has what its action needs.
func (s *Script) Validate() error {
	if s.URL == "" && len(s.Steps) == 0 {
		return errors.New("script has neither a url nor steps")
	}
	var errs []error
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			errs = append(errs, fmt.Errorf("step %d (%s): %w", i+1, step.Title(), err))
		}
	}
	return errors.Join(errs...)
}

func (s Step) validate() error {
	if !actions[s.Action] {
		return fmt.Errorf("unknown action %q", s.Action)
	}
	switch s.Action {
	case ActionNavigate, ActionWaitURL:
		if s.Value == "" {
			return errors.New("value (url) is required")
		}
	case ActionSetField, ActionAssertField:
		if s.Field == nil || s.Field.Input == nil {
			return errors.New("field with an input locator is required")
		}
		if _, err := s.Field.Field(); err != nil {
			return err
		}
	default:
		if s.Target == nil {
			return errors.New("target is required")
		}
		if _, err := s.Target.Locator(); err != nil {
			return err
		}
	}
	if s.Timeout < 0 {
		return errors.New("timeout must be non-negative")
	}
	return nil
}
