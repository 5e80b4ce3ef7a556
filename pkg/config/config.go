// Package config loads run configuration and stored credentials.
//
// Two sources exist. The run configuration is a YAML file describing the
// sessions and what to do with their results. Credentials live in a JSON
// store (~/.headlines/config.json) organised in sections, loaded once per
// process through Initialize.
package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// Initialize creates the global configuration manager over the store at
// configPath (DefaultStorePath when empty) and loads it.
func Initialize(configPath string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	store, err := NewFileStore(configPath)
	if err != nil {
		return err
	}

	manager := NewManager(store)

	if err := manager.RegisterSection(NewLLMSection()); err != nil {
		return err
	}

	if err := manager.RegisterSection(NewGridSection()); err != nil {
		return err
	}

	if err := manager.LoadAll(); err != nil {
		return err
	}

	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}

	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetLLM returns the LLM settings section from global config.
// Returns nil if config is not initialized.
func GetLLM() *LLMSection {
	if !IsInitialized() {
		return nil
	}

	section, ok := Global().GetSection(SectionIDLLM)
	if !ok {
		return nil
	}

	llm, ok := section.(*LLMSection)
	if !ok {
		return nil
	}

	return llm
}

// GetGrid returns the grid section from global config.
// Returns nil if config is not initialized.
func GetGrid() *GridSection {
	if !IsInitialized() {
		return nil
	}

	section, ok := Global().GetSection(SectionIDGrid)
	if !ok {
		return nil
	}

	grid, ok := section.(*GridSection)
	if !ok {
		return nil
	}

	return grid
}

// reset clears the global manager. Tests use it between cases.
func reset() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = nil
}
