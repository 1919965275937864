package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDBrowser is the identifier for the browser section
	SectionIDBrowser = "browser"

	defaultEngine         = "chromium"
	defaultHeadless       = true
	defaultViewportWidth  = 1366
	defaultViewportHeight = 768
)

// Browser is a snapshot of the browser launch settings.
type Browser struct {
	Engine         string
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	SlowMo         time.Duration
	BaseURL        string
	// Install downloads the browser binaries before launching.
	Install bool
}

// DefaultBrowser returns the built-in browser settings.
func DefaultBrowser() Browser {
	return Browser{
		Engine:         defaultEngine,
		Headless:       defaultHeadless,
		ViewportWidth:  defaultViewportWidth,
		ViewportHeight: defaultViewportHeight,
	}
}

// BrowserSection configures how the browser is launched.
type BrowserSection struct {
	browser Browser
	mu      sync.RWMutex
}

// NewBrowserSection creates a browser section with default settings.
func NewBrowserSection() *BrowserSection {
	return &BrowserSection{browser: DefaultBrowser()}
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Browser engine, headless mode, viewport and the base URL of the application under test."
}

// Browser returns a copy of the current settings.
func (s *BrowserSection) Browser() Browser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.browser
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.browser
	return map[string]interface{}{
		"engine":          b.Engine,
		"headless":        b.Headless,
		"viewport_width":  b.ViewportWidth,
		"viewport_height": b.ViewportHeight,
		"slow_mo":         b.SlowMo.String(),
		"base_url":        b.BaseURL,
		"install":         b.Install,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "engine":
			s.browser.Engine, err = stringValue(key, value)
		case "headless":
			s.browser.Headless, err = boolValue(key, value)
		case "viewport_width":
			s.browser.ViewportWidth, err = intValue(key, value)
		case "viewport_height":
			s.browser.ViewportHeight, err = intValue(key, value)
		case "slow_mo":
			s.browser.SlowMo, err = durationValue(key, value)
		case "base_url":
			s.browser.BaseURL, err = stringValue(key, value)
		case "install":
			s.browser.Install, err = boolValue(key, value)
		default:
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.browser.Engine {
	case "chromium", "firefox", "webkit":
	default:
		return fmt.Errorf("engine must be one of chromium, firefox, webkit, got %q", s.browser.Engine)
	}
	if s.browser.ViewportWidth <= 0 || s.browser.ViewportHeight <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", s.browser.ViewportWidth, s.browser.ViewportHeight)
	}
	if s.browser.SlowMo < 0 {
		return fmt.Errorf("slow_mo must not be negative, got %v", s.browser.SlowMo)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.browser = DefaultBrowser()
}
