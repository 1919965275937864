package pwdriver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/entrhq/uirunner/pkg/failure"
	"github.com/playwright-community/playwright-go"
)

// Message fragments Playwright uses for each failure class.
var (
	staleMarkers = []string{
		"not attached to the dom",
		"element is detached",
		"execution context was destroyed",
		"jshandle is disposed",
		"elementhandle is disposed",
		"node is detached",
	}
	interactableMarkers = []string{
		"element is not visible",
		"element is not enabled",
		"element is disabled",
		"intercepts pointer events",
		"outside of the viewport",
		"element is not an <input>",
		"not editable",
	}
	selectorMarkers = []string{
		"failed to parse selector",
		"is not a valid selector",
		"unexpected token",
		"unknown engine",
		"syntaxerror",
	}
)

func containsAny(msg string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// classify maps a Playwright error onto the failure sentinels. The original
// error stays in the chain.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())

	var sentinel error
	switch {
	case errors.Is(err, playwright.ErrTargetClosed),
		strings.Contains(msg, "target closed"),
		strings.Contains(msg, "browser has been closed"):
		sentinel = failure.ErrSessionClosed
	case containsAny(msg, staleMarkers):
		sentinel = failure.ErrStaleElement
	case containsAny(msg, selectorMarkers):
		sentinel = failure.ErrInvalidLocator
	case containsAny(msg, interactableMarkers), errors.Is(err, playwright.ErrTimeout):
		sentinel = failure.ErrNotInteractable
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, sentinel, err)
}
