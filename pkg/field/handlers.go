package field

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/entrhq/uirunner/pkg/browser"
	"github.com/entrhq/uirunner/pkg/converge"
	"github.com/entrhq/uirunner/pkg/failure"
)

// Default DateTime layouts.
const (
	DefaultDateLayout = "1/2/2006"
	DefaultTimeLayout = "3:04 PM"
)

// inputLayouts are accepted for DateTime values passed to Set.
var inputLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func isSet(loc browser.Locator) bool {
	return loc.Expression != ""
}

// typeInto clears the control at loc and types value. The control is looked
// up again on every call so a re-rendered node is picked up.
func typeInto(env Env, loc browser.Locator, value string) error {
	el, err := env.Waiter.WaitClickable(loc, env.Timeout)
	if err != nil {
		return err
	}
	if err := el.Clear(); err != nil {
		return failure.ForAction(loc.String(), "clear", err)
	}
	return failure.ForAction(loc.String(), "type", el.SendKeys(value))
}

func inputValue(env Env, loc browser.Locator) (string, error) {
	el, err := env.Waiter.WaitAvailable(loc, env.Timeout)
	if err != nil {
		return "", err
	}
	return el.Value()
}

func displayText(env Env, loc browser.Locator) (string, error) {
	el, err := env.Waiter.WaitVisible(loc, env.Timeout)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	return strings.TrimSpace(text), err
}

// readBack returns what the field shows: the display element when there is
// one, the input value otherwise.
func readBack(env Env, f Field) (string, error) {
	if isSet(f.Display) {
		return displayText(env, f.Display)
	}
	return inputValue(env, f.Input)
}

func foldEqual(expected, actual string) bool {
	return strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(actual))
}

// TextHandler types into a plain text input.
type TextHandler struct{}

func (TextHandler) Set(env Env, f Field, value string) error {
	return converge.Value(env.value(f.Name, value,
		func() error { return typeInto(env, f.Input, value) },
		func() (string, error) { return readBack(env, f) },
	))
}

func (TextHandler) Get(env Env, f Field) (string, error) {
	return readBack(env, f)
}

// NumericHandler types numbers and compares them ignoring the formatting
// the UI applies, such as grouping separators.
type NumericHandler struct{}

func (NumericHandler) Set(env Env, f Field, value string) error {
	spec := env.value(f.Name, value,
		func() error { return typeInto(env, f.Input, value) },
		func() (string, error) { return readBack(env, f) },
	)
	spec.Equal = numericEqual
	return converge.Value(spec)
}

func (NumericHandler) Get(env Env, f Field) (string, error) {
	return readBack(env, f)
}

func normalizeNumber(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func numericEqual(expected, actual string) bool {
	e, errE := strconv.ParseFloat(normalizeNumber(expected), 64)
	a, errA := strconv.ParseFloat(normalizeNumber(actual), 64)
	if errE != nil || errA != nil {
		return strings.TrimSpace(expected) == strings.TrimSpace(actual)
	}
	return e == a
}

// OptionSetHandler picks an option by its label.
type OptionSetHandler struct{}

func (OptionSetHandler) Set(env Env, f Field, value string) error {
	spec := env.value(f.Name, value,
		func() error {
			el, err := env.Waiter.WaitClickable(f.Input, env.Timeout)
			if err != nil {
				return err
			}
			return failure.ForAction(f.Input.String(), "select", el.SelectOption(value))
		},
		func() (string, error) { return readBack(env, f) },
	)
	spec.Equal = foldEqual
	return converge.Value(spec)
}

func (OptionSetHandler) Get(env Env, f Field) (string, error) {
	return readBack(env, f)
}

// BooleanHandler toggles a checkbox or switch to the wanted state.
type BooleanHandler struct{}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "on", "checked":
		return true, nil
	case "no", "off", "unchecked":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(value))
}

func (BooleanHandler) Set(env Env, f Field, value string) error {
	want, err := parseBool(value)
	if err != nil {
		return fmt.Errorf("field %s: %w", f.Name, err)
	}
	return converge.Value(env.value(f.Name, strconv.FormatBool(want),
		func() error {
			el, err := env.Waiter.WaitClickable(f.Input, env.Timeout)
			if err != nil {
				return err
			}
			checked, err := el.IsChecked()
			if err != nil {
				return err
			}
			if checked == want {
				return nil
			}
			return failure.ForAction(f.Input.String(), "click", el.Click())
		},
		func() (string, error) { return BooleanHandler{}.Get(env, f) },
	))
}

func (BooleanHandler) Get(env Env, f Field) (string, error) {
	el, err := env.Waiter.WaitAvailable(f.Input, env.Timeout)
	if err != nil {
		return "", err
	}
	checked, err := el.IsChecked()
	if err != nil {
		return "", err
	}
	return strconv.FormatBool(checked), nil
}

// LookupHandler searches for a related record and picks it from the result
// list. When the search input is not rendered, the field is in its compact
// mode and the Alternate dropdown is used instead.
type LookupHandler struct{}

func (LookupHandler) Set(env Env, f Field, value string) error {
	spec := env.value(f.Name, value,
		func() error {
			_, searchMode, err := env.Waiter.TryFind(f.Input)
			if err != nil {
				return err
			}
			if !searchMode && isSet(f.Alternate) {
				el, err := env.Waiter.WaitClickable(f.Alternate, env.Timeout)
				if err != nil {
					return err
				}
				return failure.ForAction(f.Alternate.String(), "select", el.SelectOption(value))
			}
			if err := typeInto(env, f.Input, value); err != nil {
				return err
			}
			if !isSet(f.Option) {
				return nil
			}
			optionLoc := f.Option.Format(value)
			option, err := env.Waiter.WaitClickable(optionLoc, env.Timeout)
			if err != nil {
				return err
			}
			return failure.ForAction(optionLoc.String(), "click", option.Click())
		},
		func() (string, error) { return LookupHandler{}.Get(env, f) },
	)
	spec.Equal = foldEqual
	return converge.Value(spec)
}

func (LookupHandler) Get(env Env, f Field) (string, error) {
	if isSet(f.Display) {
		if el, ok, err := env.Waiter.TryFind(f.Display); err != nil {
			return "", err
		} else if ok {
			text, err := el.Text()
			return strings.TrimSpace(text), err
		}
	}
	if _, ok, err := env.Waiter.TryFind(f.Input); err != nil {
		return "", err
	} else if !ok && isSet(f.Alternate) {
		return inputValue(env, f.Alternate)
	}
	return inputValue(env, f.Input)
}

// DateTimeHandler writes the date and time parts of a field separately;
// each part converges on its own.
type DateTimeHandler struct{}

func parseDateTime(value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	for _, layout := range inputLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, layout != "2006-01-02", nil
		}
	}
	return time.Time{}, false, fmt.Errorf("invalid date/time %q, expected YYYY-MM-DD[ HH:MM]", value)
}

func layouts(f Field) (string, string) {
	date, clock := f.DateLayout, f.TimeLayout
	if date == "" {
		date = DefaultDateLayout
	}
	if clock == "" {
		clock = DefaultTimeLayout
	}
	return date, clock
}

func (DateTimeHandler) Set(env Env, f Field, value string) error {
	t, hasTime, err := parseDateTime(value)
	if err != nil {
		return fmt.Errorf("field %s: %w", f.Name, err)
	}
	dateLayout, timeLayout := layouts(f)

	date := t.Format(dateLayout)
	err = converge.Value(env.value(f.Name+" (date)", date,
		func() error { return typeInto(env, f.Input, date) },
		func() (string, error) { return inputValue(env, f.Input) },
	))
	if err != nil {
		return err
	}

	if !hasTime || !isSet(f.Time) {
		return nil
	}
	clock := t.Format(timeLayout)
	spec := env.value(f.Name+" (time)", clock,
		func() error { return typeInto(env, f.Time, clock) },
		func() (string, error) { return inputValue(env, f.Time) },
	)
	spec.Equal = foldEqual
	return converge.Value(spec)
}

func (DateTimeHandler) Get(env Env, f Field) (string, error) {
	date, err := inputValue(env, f.Input)
	if err != nil {
		return "", err
	}
	if !isSet(f.Time) {
		return date, nil
	}
	clock, err := inputValue(env, f.Time)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(date + " " + clock), nil
}
