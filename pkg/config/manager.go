package config

import (
	"fmt"
	"sync"
)

// Section is one named group of settings persisted through a Store.
type Section interface {
	// ID returns the key the section is stored under
	ID() string

	// Title returns a human-readable title
	Title() string

	// Description describes what the section configures
	Description() string

	// Data returns the current settings as a plain map
	Data() map[string]interface{}

	// SetData applies settings from a plain map
	SetData(data map[string]interface{}) error

	// Validate checks the current settings
	Validate() error

	// Reset restores defaults
	Reset()
}

// Manager owns a set of sections and moves them to and from a Store.
type Manager struct {
	store    Store
	sections []Section
	byID     map[string]Section
	mu       sync.RWMutex
}

// NewManager creates a manager backed by store.
func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		byID:  make(map[string]Section),
	}
}

// Store returns the backing store.
func (m *Manager) Store() Store {
	return m.store
}

// RegisterSection adds a section. IDs must be unique.
func (m *Manager) RegisterSection(section Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[section.ID()]; exists {
		return fmt.Errorf("section %q already registered", section.ID())
	}
	m.byID[section.ID()] = section
	m.sections = append(m.sections, section)
	return nil
}

// GetSection returns the section registered under id.
func (m *Manager) GetSection(id string) (Section, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	section, ok := m.byID[id]
	return section, ok
}

// GetSections returns all sections in registration order.
func (m *Manager) GetSections() []Section {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Section, len(m.sections))
	copy(out, m.sections)
	return out
}

// LoadAll loads the store and applies its data to every section.
func (m *Manager) LoadAll() error {
	if err := m.store.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, section := range m.GetSections() {
		data, err := m.store.GetSection(section.ID())
		if err != nil {
			return fmt.Errorf("failed to read section %s: %w", section.ID(), err)
		}
		if err := section.SetData(data); err != nil {
			return fmt.Errorf("failed to apply section %s: %w", section.ID(), err)
		}
	}
	return nil
}

// SaveAll validates every section and writes them to the store.
func (m *Manager) SaveAll() error {
	for _, section := range m.GetSections() {
		if err := section.Validate(); err != nil {
			return fmt.Errorf("invalid section %s: %w", section.ID(), err)
		}
		if err := m.store.SetSection(section.ID(), section.Data()); err != nil {
			return fmt.Errorf("failed to store section %s: %w", section.ID(), err)
		}
	}
	if err := m.store.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// ValidateAll validates every section.
func (m *Manager) ValidateAll() error {
	for _, section := range m.GetSections() {
		if err := section.Validate(); err != nil {
			return fmt.Errorf("invalid section %s: %w", section.ID(), err)
		}
	}
	return nil
}

// ResetAll restores every section to defaults.
func (m *Manager) ResetAll() {
	for _, section := range m.GetSections() {
		section.Reset()
	}
}
