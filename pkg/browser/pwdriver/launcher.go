package pwdriver

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/entrhq/uirunner/pkg/logging"
	"github.com/playwright-community/playwright-go"
)

// Launcher owns the Playwright driver process and the browsers launched
// through it.
type Launcher struct {
	mu          sync.Mutex
	playwright  *playwright.Playwright
	drivers     map[*Driver]struct{}
	logger      *logging.Logger
	initialized bool
}

// NewLauncher creates a launcher. Initialize must be called before Launch.
func NewLauncher(logger *logging.Logger) *Launcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Launcher{
		drivers: make(map[*Driver]struct{}),
		logger:  logger,
	}
}

// Initialize starts Playwright, downloading the driver and the browser for
// engine first when install is set.
func (l *Launcher) Initialize(engine string, install bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return nil
	}

	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if engine != "" {
		opts.Browsers = []string{engine}
	}

	if install {
		l.logger.Infof("installing playwright driver and %s", engine)
		if err := playwright.Install(opts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	l.playwright = pw
	l.initialized = true
	return nil
}

func (l *Launcher) browserType(engine string) playwright.BrowserType {
	switch engine {
	case EngineFirefox:
		return l.playwright.Firefox
	case EngineWebKit:
		return l.playwright.WebKit
	default:
		return l.playwright.Chromium
	}
}

// Launch opens a browser, a fresh context and a page, and returns them as a
// Driver.
func (l *Launcher) Launch(opts Options) (*Driver, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return nil, fmt.Errorf("launcher not initialized")
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.SlowMo > 0 {
		launchOpts.SlowMo = playwright.Float(ms(opts.SlowMo))
	}
	browser, err := l.browserType(opts.Engine).Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", opts.Engine, err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	}
	if opts.BaseURL != "" {
		contextOpts.BaseURL = playwright.String(opts.BaseURL)
	}
	context, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.SetDefaultTimeout(ms(opts.ActionTimeout))
	page.SetDefaultNavigationTimeout(ms(opts.NavigationTimeout))

	d := &Driver{
		browser:           browser,
		context:           context,
		page:              page,
		actionTimeout:     ms(opts.ActionTimeout),
		navigationTimeout: ms(opts.NavigationTimeout),
		logger:            l.logger,
		release:           l.release,
	}
	l.drivers[d] = struct{}{}
	l.logger.Infof("launched %s (headless=%v, viewport %dx%d)",
		opts.Engine, opts.Headless, opts.Viewport.Width, opts.Viewport.Height)
	return d, nil
}

func (l *Launcher) release(d *Driver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.drivers, d)
}

// Shutdown closes every driver still open and stops Playwright.
func (l *Launcher) Shutdown() error {
	l.mu.Lock()
	drivers := make([]*Driver, 0, len(l.drivers))
	for d := range l.drivers {
		drivers = append(drivers, d)
	}
	l.mu.Unlock()

	var errs []error
	for _, d := range drivers {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized && l.playwright != nil {
		if err := l.playwright.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		l.initialized = false
	}
	return errors.Join(errs...)
}
