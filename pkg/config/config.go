// Package config loads runtime settings from a JSON or YAML file, a .env
// file and UIRUNNER_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// envOverrides maps environment variables to section keys.
var envOverrides = []struct {
	env     string
	section string
	key     string
}{
	{"UIRUNNER_THINK_TIME", SectionIDTiming, "think_time"},
	{"UIRUNNER_POLL_INTERVAL", SectionIDTiming, "poll_interval"},
	{"UIRUNNER_SHORT_TIMEOUT", SectionIDTiming, "short_timeout"},
	{"UIRUNNER_DEFAULT_TIMEOUT", SectionIDTiming, "default_timeout"},
	{"UIRUNNER_NAVIGATION_TIMEOUT", SectionIDTiming, "navigation_timeout"},
	{"UIRUNNER_CONVERGENCE_DELAY", SectionIDTiming, "convergence_delay"},
	{"UIRUNNER_CONVERGENCE_ATTEMPTS", SectionIDTiming, "convergence_attempts"},
	{"UIRUNNER_CONVERGENCE_TIMEOUT", SectionIDTiming, "convergence_timeout"},
	{"UIRUNNER_BROWSER", SectionIDBrowser, "engine"},
	{"UIRUNNER_HEADLESS", SectionIDBrowser, "headless"},
	{"UIRUNNER_SLOW_MO", SectionIDBrowser, "slow_mo"},
	{"UIRUNNER_BASE_URL", SectionIDBrowser, "base_url"},
	{"UIRUNNER_INSTALL", SectionIDBrowser, "install"},
}

// Load builds a Manager with the timing and browser sections, loads the
// file at path (empty for ~/.uirunner/config.yaml), then applies .env and
// environment overrides and validates the result.
func Load(path string, envFiles ...string) (*Manager, error) {
	if err := LoadEnv(envFiles...); err != nil {
		return nil, err
	}

	manager, err := newManager(path)
	if err != nil {
		return nil, err
	}
	if err := manager.LoadAll(); err != nil {
		return nil, err
	}
	if err := ApplyEnv(manager); err != nil {
		return nil, err
	}
	if err := manager.ValidateAll(); err != nil {
		return nil, err
	}
	return manager, nil
}

// Init writes a config file holding the default settings of every section
// and returns the manager backing it. An existing file with settings is only
// replaced when force is set; its unknown sections are dropped.
func Init(path string, force bool) (*Manager, error) {
	manager, err := newManager(path)
	if err != nil {
		return nil, err
	}

	existing, err := manager.Store().GetAll()
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		if !force {
			return nil, fmt.Errorf("config file %s already has settings", storePath(manager))
		}
		if err := manager.Store().SetAll(map[string]map[string]interface{}{}); err != nil {
			return nil, err
		}
	}

	manager.ResetAll()
	if err := manager.SaveAll(); err != nil {
		return nil, err
	}
	return manager, nil
}

func newManager(path string) (*Manager, error) {
	store, err := NewFileStore(path)
	if err != nil {
		return nil, err
	}

	manager := NewManager(store)
	if err := manager.RegisterSection(NewTimingSection()); err != nil {
		return nil, err
	}
	if err := manager.RegisterSection(NewBrowserSection()); err != nil {
		return nil, err
	}
	return manager, nil
}

// storePath returns the file behind m, if it is file backed.
func storePath(m *Manager) string {
	if fs, ok := m.Store().(*FileStore); ok {
		return fs.Path()
	}
	return ""
}

// LoadEnv loads .env style files into the process environment. Variables
// already set win. Missing files are ignored; with no arguments ".env" is
// tried.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			// It's okay if the file doesn't exist
			if !os.IsNotExist(err) {
				return fmt.Errorf("error loading %s: %w", file, err)
			}
		}
	}
	return nil
}

// ApplyEnv applies UIRUNNER_* variables on top of the loaded sections.
func ApplyEnv(m *Manager) error {
	pending := make(map[string]map[string]interface{})
	for _, o := range envOverrides {
		value := getEnv(o.env, "")
		if value == "" {
			continue
		}
		if pending[o.section] == nil {
			pending[o.section] = make(map[string]interface{})
		}
		pending[o.section][o.key] = value
	}

	for id, data := range pending {
		section, ok := m.GetSection(id)
		if !ok {
			continue
		}
		if err := section.SetData(data); err != nil {
			return fmt.Errorf("invalid environment override for %s: %w", id, err)
		}
	}
	return nil
}

// TimingSettings returns the timing settings registered in m, or the
// defaults.
func TimingSettings(m *Manager) Timing {
	if m != nil {
		if section, ok := m.GetSection(SectionIDTiming); ok {
			if timing, ok := section.(*TimingSection); ok {
				return timing.Timing()
			}
		}
	}
	return DefaultTiming()
}

// BrowserSettings returns the browser settings registered in m, or the
// defaults.
func BrowserSettings(m *Manager) Browser {
	if m != nil {
		if section, ok := m.GetSection(SectionIDBrowser); ok {
			if browser, ok := section.(*BrowserSection); ok {
				return browser.Browser()
			}
		}
	}
	return DefaultBrowser()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
