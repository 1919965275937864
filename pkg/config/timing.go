package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDTiming is the identifier for the timing section
	SectionIDTiming = "timing"

	defaultThinkTime           = 2 * time.Second
	defaultPollInterval        = 250 * time.Millisecond
	defaultShortTimeout        = 2 * time.Second
	defaultTimeout             = 10 * time.Second
	defaultNavigationTimeout   = 30 * time.Second
	defaultConvergenceDelay    = 500 * time.Millisecond
	defaultConvergenceAttempts = 5
	defaultConvergenceTimeout  = 10 * time.Second
)

// Timing is a snapshot of the timing settings.
type Timing struct {
	ThinkTime           time.Duration
	PollInterval        time.Duration
	ShortTimeout        time.Duration
	DefaultTimeout      time.Duration
	NavigationTimeout   time.Duration
	ConvergenceDelay    time.Duration
	ConvergenceAttempts int
	ConvergenceTimeout  time.Duration
}

// DefaultTiming returns the built-in timing settings.
func DefaultTiming() Timing {
	return Timing{
		ThinkTime:           defaultThinkTime,
		PollInterval:        defaultPollInterval,
		ShortTimeout:        defaultShortTimeout,
		DefaultTimeout:      defaultTimeout,
		NavigationTimeout:   defaultNavigationTimeout,
		ConvergenceDelay:    defaultConvergenceDelay,
		ConvergenceAttempts: defaultConvergenceAttempts,
		ConvergenceTimeout:  defaultConvergenceTimeout,
	}
}

// TimingSection configures pacing, poll intervals and wait timeouts.
type TimingSection struct {
	timing Timing
	mu     sync.RWMutex
}

// NewTimingSection creates a timing section with default settings.
func NewTimingSection() *TimingSection {
	return &TimingSection{timing: DefaultTiming()}
}

// ID returns the section identifier.
func (s *TimingSection) ID() string {
	return SectionIDTiming
}

// Title returns the section title.
func (s *TimingSection) Title() string {
	return "Timing"
}

// Description returns the section description.
func (s *TimingSection) Description() string {
	return "Think time between commands, poll interval and timeouts for element waits and value convergence."
}

// Timing returns a copy of the current settings.
func (s *TimingSection) Timing() Timing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timing
}

// Data returns the current configuration data.
func (s *TimingSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.timing
	return map[string]interface{}{
		"think_time":           t.ThinkTime.String(),
		"poll_interval":        t.PollInterval.String(),
		"short_timeout":        t.ShortTimeout.String(),
		"default_timeout":      t.DefaultTimeout.String(),
		"navigation_timeout":   t.NavigationTimeout.String(),
		"convergence_delay":    t.ConvergenceDelay.String(),
		"convergence_attempts": t.ConvergenceAttempts,
		"convergence_timeout":  t.ConvergenceTimeout.String(),
	}
}

// SetData updates the configuration from the provided data.
func (s *TimingSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	durations := map[string]*time.Duration{
		"think_time":          &s.timing.ThinkTime,
		"poll_interval":       &s.timing.PollInterval,
		"short_timeout":       &s.timing.ShortTimeout,
		"default_timeout":     &s.timing.DefaultTimeout,
		"navigation_timeout":  &s.timing.NavigationTimeout,
		"convergence_delay":   &s.timing.ConvergenceDelay,
		"convergence_timeout": &s.timing.ConvergenceTimeout,
	}

	for key, value := range data {
		if target, ok := durations[key]; ok {
			d, err := durationValue(key, value)
			if err != nil {
				return err
			}
			*target = d
			continue
		}
		if key == "convergence_attempts" {
			n, err := intValue(key, value)
			if err != nil {
				return err
			}
			s.timing.ConvergenceAttempts = n
		}
		// Unknown keys are ignored for forward compatibility
	}

	return nil
}

// Validate validates the current configuration.
func (s *TimingSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.timing
	if t.ThinkTime < 0 {
		return fmt.Errorf("think_time must not be negative, got %v", t.ThinkTime)
	}
	if t.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", t.PollInterval)
	}
	for name, d := range map[string]time.Duration{
		"short_timeout":       t.ShortTimeout,
		"default_timeout":     t.DefaultTimeout,
		"navigation_timeout":  t.NavigationTimeout,
		"convergence_timeout": t.ConvergenceTimeout,
	} {
		if d < t.PollInterval {
			return fmt.Errorf("%s must be at least poll_interval (%v), got %v", name, t.PollInterval, d)
		}
	}
	if t.ConvergenceDelay <= 0 {
		return fmt.Errorf("convergence_delay must be positive, got %v", t.ConvergenceDelay)
	}
	if t.ConvergenceAttempts < 1 {
		return fmt.Errorf("convergence_attempts must be at least 1, got %d", t.ConvergenceAttempts)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *TimingSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timing = DefaultTiming()
}
