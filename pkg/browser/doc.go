// Package browser defines the boundary between the interaction runtime and a
// browser automation driver.
//
// The runtime consumes a small surface: resolve a Locator to Elements, read
// element state (attached, displayed, enabled, obscured, value), act on an
// element (click, clear, send keys, select), and read the current URL.
// Everything above this boundary (waits, convergence, command recording) is
// driver-agnostic; the pwdriver subpackage adapts Playwright to it.
//
// # Locators
//
// A Locator is an opaque description of how to find a node. It is never
// mutated by the runtime, only resolved repeatedly against the live DOM:
//
//	name := browser.CSS("input[data-id='name.fieldControl-text-box-text']").Named("account name")
//	row := browser.XPath("//li[@aria-label='%s']").Format("Contoso")
//
// # Errors
//
// Drivers report "no match yet" and "handle went stale" with
// failure.ErrNoSuchElement and failure.ErrStaleElement so the polling layers
// can retry them, and report malformed selectors with
// failure.ErrInvalidLocator so they fail fast.
package browser
