// Package pwdriver implements the browser.Driver port on top of Playwright.
//
// A Launcher owns the Playwright process and launches one Driver per
// browser session. Native Playwright errors are classified into the
// failure sentinels so that waits treat rendering races as "not ready".
package pwdriver

import (
	"fmt"
	"time"

	"github.com/entrhq/uirunner/pkg/config"
)

// Engines supported by Launch.
const (
	EngineChromium = "chromium"
	EngineFirefox  = "firefox"
	EngineWebKit   = "webkit"
)

// Default values for launch options.
const (
	DefaultViewportWidth     = 1366
	DefaultViewportHeight    = 768
	DefaultActionTimeout     = 2 * time.Second
	DefaultNavigationTimeout = 30 * time.Second
)

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Options configures a launched browser session.
type Options struct {
	// Engine is chromium, firefox or webkit.
	Engine string

	// Headless controls whether the browser runs without a visible window
	Headless bool

	// SlowMo delays every Playwright operation, for watching a run.
	SlowMo time.Duration

	// Viewport sets the initial viewport size
	Viewport Viewport

	// BaseURL resolves relative navigation targets.
	BaseURL string

	// ActionTimeout bounds a single native action such as a click. Waiting
	// for the element to become ready is done by the caller, so this stays
	// short.
	ActionTimeout time.Duration

	// NavigationTimeout bounds a page load.
	NavigationTimeout time.Duration
}

// OptionsFrom builds launch options from the browser and timing settings.
func OptionsFrom(b config.Browser, t config.Timing) Options {
	return Options{
		Engine:            b.Engine,
		Headless:          b.Headless,
		SlowMo:            b.SlowMo,
		Viewport:          Viewport{Width: b.ViewportWidth, Height: b.ViewportHeight},
		BaseURL:           b.BaseURL,
		ActionTimeout:     t.ShortTimeout,
		NavigationTimeout: t.NavigationTimeout,
	}
}

func (o Options) withDefaults() (Options, error) {
	switch o.Engine {
	case "":
		o.Engine = EngineChromium
	case EngineChromium, EngineFirefox, EngineWebKit:
	default:
		return o, fmt.Errorf("unsupported browser engine %q", o.Engine)
	}
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		o.Viewport = Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = DefaultActionTimeout
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = DefaultNavigationTimeout
	}
	return o, nil
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
