package pwdriver

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/entrhq/uirunner/pkg/browser"
	"github.com/entrhq/uirunner/pkg/failure"
	"github.com/entrhq/uirunner/pkg/logging"
	"github.com/playwright-community/playwright-go"
)

// Driver is one browser session: a browser, its context and a page.
type Driver struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	actionTimeout     float64
	navigationTimeout float64

	logger  *logging.Logger
	release func(*Driver)
	closed  bool
}

// selector renders loc in Playwright's selector syntax.
func selector(loc browser.Locator) string {
	switch loc.Strategy {
	case browser.StrategyXPath:
		return "xpath=" + loc.Expression
	case browser.StrategyText:
		return "text=" + strconv.Quote(loc.Expression)
	default:
		return "css=" + loc.Expression
	}
}

// FindElements resolves loc to element handles. Each handle pins the node
// it was resolved to and goes stale when that node is removed.
func (d *Driver) FindElements(loc browser.Locator) ([]browser.Element, error) {
	if d.closed {
		return nil, failure.ErrSessionClosed
	}
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", failure.ErrInvalidLocator, err)
	}
	handles, err := d.page.QuerySelectorAll(selector(loc))
	if err != nil {
		return nil, classify("query "+loc.String(), err)
	}
	out := make([]browser.Element, len(handles))
	for i, h := range handles {
		out[i] = &Element{handle: h, name: loc.String(), timeout: d.actionTimeout}
	}
	return out, nil
}

// CurrentURL returns the URL of the page.
func (d *Driver) CurrentURL() (string, error) {
	if d.closed {
		return "", failure.ErrSessionClosed
	}
	return d.page.URL(), nil
}

// Navigate loads url and returns once the DOM content has loaded.
func (d *Driver) Navigate(url string) error {
	if d.closed {
		return failure.ErrSessionClosed
	}
	waitUntil := playwright.WaitUntilState("domcontentloaded")
	_, err := d.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: &waitUntil,
		Timeout:   playwright.Float(d.navigationTimeout),
	})
	if err != nil {
		return classify("navigation failed", err)
	}
	d.logger.Debugf("navigated to %s", d.page.URL())
	return nil
}

// Close tears down the page, its context and the browser. Closing twice is
// a no-op.
func (d *Driver) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.release != nil {
		d.release(d)
	}

	var errs []error
	if err := d.page.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := d.context.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := d.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing browser: %w", errors.Join(errs...))
	}
	return nil
}

// Page exposes the underlying Playwright page.
func (d *Driver) Page() playwright.Page {
	return d.page
}

var _ browser.Driver = (*Driver)(nil)
