package model

import (
	"fmt"
	"sort"
	"sync"
)

// ManagerFactory creates a management system of a registered type.
type ManagerFactory func(cfg ManagerConfig) ManagementSystem

var (
	registryMu sync.RWMutex
	registry   = make(map[string]ManagerFactory)
)

// RegisterManagerType registers a factory for a given manager type name.
// e.g. RegisterManagerType("redhat", newRedhatManager)
func RegisterManagerType(typeName string, factory ManagerFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[typeName]; dup {
		panic("RegisterManagerType called twice for " + typeName)
	}
	registry[typeName] = factory
}

// NewManager creates a management system using the factory registered for cfg.Type.
func NewManager(cfg ManagerConfig) (ManagementSystem, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("manager type '%s' not found in registry", cfg.Type)
	}
	return factory(cfg), nil
}

// HasManagerType reports whether typeName has a registered factory.
func HasManagerType(typeName string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[typeName]
	return ok
}

// ManagerTypes returns the registered type names, sorted.
func ManagerTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
