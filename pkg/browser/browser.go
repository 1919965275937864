package browser

// Driver is the port implemented by browser automation adapters.
//
// Any call may fail with failure.ErrNoSuchElement or failure.ErrStaleElement
// while the page is rendering; callers treat those as "not ready" rather than
// as hard failures. Implementations must classify their native errors
// accordingly.
type Driver interface {
	// FindElements resolves loc against the live DOM. No match is an empty
	// slice, not an error.
	FindElements(loc Locator) ([]Element, error)

	// CurrentURL returns the URL of the active page.
	CurrentURL() (string, error)

	// Navigate loads url in the active page.
	Navigate(url string) error

	// Close releases the browser session.
	Close() error
}

// Element is a handle to a resolved DOM node. A handle may go stale at any
// time if the page re-renders the node.
type Element interface {
	IsAttached() (bool, error)
	IsDisplayed() (bool, error)
	IsEnabled() (bool, error)
	// IsObscured reports whether another node covers the element's center.
	IsObscured() (bool, error)
	IsChecked() (bool, error)

	// Attribute returns the named attribute and whether it is present.
	Attribute(name string) (string, bool, error)
	Text() (string, error)
	// Value returns the current value of an input, select or textarea.
	Value() (string, error)

	Click() error
	Clear() error
	SendKeys(text string) error
	SelectOption(label string) error
}
