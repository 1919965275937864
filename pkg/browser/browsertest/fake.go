// Package browsertest provides in-memory browser.Driver implementations for
// exercising waits, convergence and commands without a real browser.
package browsertest

import (
	"github.com/entrhq/uirunner/pkg/browser"
	"github.com/entrhq/uirunner/pkg/failure"
)

// FakeDriver is a scripted DOM. Locators are keyed by expression.
type FakeDriver struct {
	URL       string
	URLs      []string // consumed one per CurrentURL call when non-empty
	Navigated []string
	Closed    bool

	NavigateErr error
	CloseErr    error

	resolvers map[string]func(attempt int) ([]browser.Element, error)
	finds     map[string]int
}

// NewFakeDriver returns an empty FakeDriver at about:blank.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		URL:       "about:blank",
		resolvers: make(map[string]func(int) ([]browser.Element, error)),
		finds:     make(map[string]int),
	}
}

// Set makes loc resolve to elems on every lookup.
func (d *FakeDriver) Set(loc browser.Locator, elems ...*FakeElement) {
	out := make([]browser.Element, len(elems))
	for i, e := range elems {
		out[i] = e
	}
	d.resolvers[loc.Expression] = func(int) ([]browser.Element, error) {
		return out, nil
	}
}

// SetFunc scripts loc by lookup attempt (1-based).
func (d *FakeDriver) SetFunc(loc browser.Locator, fn func(attempt int) ([]browser.Element, error)) {
	d.resolvers[loc.Expression] = fn
}

// AppearAfter makes loc resolve to nothing for the first n lookups and to
// elems afterwards.
func (d *FakeDriver) AppearAfter(loc browser.Locator, n int, elems ...*FakeElement) {
	out := make([]browser.Element, len(elems))
	for i, e := range elems {
		out[i] = e
	}
	d.resolvers[loc.Expression] = func(attempt int) ([]browser.Element, error) {
		if attempt <= n {
			return nil, nil
		}
		return out, nil
	}
}

// Remove makes loc resolve to nothing.
func (d *FakeDriver) Remove(loc browser.Locator) {
	delete(d.resolvers, loc.Expression)
}

// Finds returns how many times loc was looked up.
func (d *FakeDriver) Finds(loc browser.Locator) int {
	return d.finds[loc.Expression]
}

func (d *FakeDriver) FindElements(loc browser.Locator) ([]browser.Element, error) {
	if d.Closed {
		return nil, failure.ErrSessionClosed
	}
	if err := loc.Validate(); err != nil {
		return nil, failure.ErrInvalidLocator
	}
	d.finds[loc.Expression]++
	fn, ok := d.resolvers[loc.Expression]
	if !ok {
		return nil, nil
	}
	return fn(d.finds[loc.Expression])
}

func (d *FakeDriver) CurrentURL() (string, error) {
	if d.Closed {
		return "", failure.ErrSessionClosed
	}
	if len(d.URLs) > 0 {
		d.URL = d.URLs[0]
		d.URLs = d.URLs[1:]
	}
	return d.URL, nil
}

func (d *FakeDriver) Navigate(url string) error {
	if d.NavigateErr != nil {
		return d.NavigateErr
	}
	d.Navigated = append(d.Navigated, url)
	d.URL = url
	return nil
}

func (d *FakeDriver) Close() error {
	d.Closed = true
	return d.CloseErr
}

// FakeElement is a scripted DOM node. The zero value is detached; use
// NewElement for a visible, enabled node.
type FakeElement struct {
	Attached bool
	Shown    bool
	Enabled  bool
	Obscured bool
	Checked  bool
	Stale    bool

	Attrs map[string]string
	Label string
	Input string

	// OnSendKeys replaces the default append behaviour when set.
	OnSendKeys func(e *FakeElement, text string)
	// OnClick runs after a successful click.
	OnClick func(e *FakeElement)

	ClickErr error

	Clicks   int
	Clears   int
	Typed    []string
	Selected []string
}

// NewElement returns an attached, visible, enabled element.
func NewElement() *FakeElement {
	return &FakeElement{Attached: true, Shown: true, Enabled: true, Attrs: map[string]string{}}
}

func (e *FakeElement) stale() error {
	if e.Stale {
		return failure.ErrStaleElement
	}
	return nil
}

func (e *FakeElement) IsAttached() (bool, error) {
	if e.Stale {
		return false, nil
	}
	return e.Attached, nil
}

func (e *FakeElement) IsDisplayed() (bool, error) {
	return e.Shown, e.stale()
}

func (e *FakeElement) IsEnabled() (bool, error) {
	return e.Enabled, e.stale()
}

func (e *FakeElement) IsObscured() (bool, error) {
	return e.Obscured, e.stale()
}

func (e *FakeElement) IsChecked() (bool, error) {
	return e.Checked, e.stale()
}

func (e *FakeElement) Attribute(name string) (string, bool, error) {
	if err := e.stale(); err != nil {
		return "", false, err
	}
	v, ok := e.Attrs[name]
	return v, ok, nil
}

func (e *FakeElement) Text() (string, error) {
	return e.Label, e.stale()
}

func (e *FakeElement) Value() (string, error) {
	return e.Input, e.stale()
}

func (e *FakeElement) Click() error {
	if err := e.stale(); err != nil {
		return err
	}
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	if e.OnClick != nil {
		e.OnClick(e)
	}
	return nil
}

func (e *FakeElement) Clear() error {
	if err := e.stale(); err != nil {
		return err
	}
	e.Clears++
	e.Input = ""
	return nil
}

func (e *FakeElement) SendKeys(text string) error {
	if err := e.stale(); err != nil {
		return err
	}
	e.Typed = append(e.Typed, text)
	if e.OnSendKeys != nil {
		e.OnSendKeys(e, text)
		return nil
	}
	e.Input += text
	return nil
}

func (e *FakeElement) SelectOption(label string) error {
	if err := e.stale(); err != nil {
		return err
	}
	e.Selected = append(e.Selected, label)
	e.Input = label
	return nil
}

var (
	_ browser.Driver  = (*FakeDriver)(nil)
	_ browser.Element = (*FakeElement)(nil)
)
