package pwdriver

import (
	"fmt"

	"github.com/entrhq/uirunner/pkg/browser"
	"github.com/playwright-community/playwright-go"
)

const (
	isConnectedJS = `el => el.isConnected`

	// An element is obscured when the node at its center point is neither
	// the element nor one of its descendants.
	isObscuredJS = `el => {
		const r = el.getBoundingClientRect();
		const x = r.left + r.width / 2;
		const y = r.top + r.height / 2;
		const hit = document.elementFromPoint(x, y);
		return hit !== null && hit !== el && !el.contains(hit);
	}`

	getAttributeJS = `(el, name) => el.getAttribute(name)`
)

// Element adapts a Playwright element handle to browser.Element.
type Element struct {
	handle  playwright.ElementHandle
	name    string
	timeout float64
}

func (e *Element) op(action string) string {
	return fmt.Sprintf("%s %s", action, e.name)
}

func (e *Element) evalBool(action, js string) (bool, error) {
	v, err := e.handle.Evaluate(js)
	if err != nil {
		return false, classify(e.op(action), err)
	}
	b, _ := v.(bool)
	return b, nil
}

func (e *Element) IsAttached() (bool, error) {
	return e.evalBool("inspect", isConnectedJS)
}

func (e *Element) IsDisplayed() (bool, error) {
	v, err := e.handle.IsVisible()
	return v, classify(e.op("check visibility of"), err)
}

func (e *Element) IsEnabled() (bool, error) {
	v, err := e.handle.IsEnabled()
	return v, classify(e.op("check enabled state of"), err)
}

func (e *Element) IsObscured() (bool, error) {
	return e.evalBool("hit-test", isObscuredJS)
}

func (e *Element) IsChecked() (bool, error) {
	v, err := e.handle.IsChecked()
	return v, classify(e.op("check checked state of"), err)
}

func (e *Element) Attribute(name string) (string, bool, error) {
	v, err := e.handle.Evaluate(getAttributeJS, name)
	if err != nil {
		return "", false, classify(e.op("read attribute of"), err)
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (e *Element) Text() (string, error) {
	v, err := e.handle.InnerText()
	return v, classify(e.op("read text of"), err)
}

func (e *Element) Value() (string, error) {
	v, err := e.handle.InputValue(playwright.ElementHandleInputValueOptions{
		Timeout: playwright.Float(e.timeout),
	})
	return v, classify(e.op("read value of"), err)
}

func (e *Element) Click() error {
	err := e.handle.Click(playwright.ElementHandleClickOptions{
		Timeout: playwright.Float(e.timeout),
	})
	return classify(e.op("click"), err)
}

func (e *Element) Clear() error {
	err := e.handle.Fill("", playwright.ElementHandleFillOptions{
		Timeout: playwright.Float(e.timeout),
	})
	return classify(e.op("clear"), err)
}

// SendKeys types text key by key so that the page sees the same input
// events a user would produce.
func (e *Element) SendKeys(text string) error {
	err := e.handle.Type(text, playwright.ElementHandleTypeOptions{
		Timeout: playwright.Float(e.timeout),
	})
	return classify(e.op("type into"), err)
}

func (e *Element) SelectOption(label string) error {
	_, err := e.handle.SelectOption(
		playwright.SelectOptionValues{Labels: &[]string{label}},
		playwright.ElementHandleSelectOptionOptions{Timeout: playwright.Float(e.timeout)},
	)
	return classify(e.op("select option of"), err)
}

var _ browser.Element = (*Element)(nil)
