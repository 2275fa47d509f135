package core

import (
	"fmt"
	"sync"
)

var (
	registry      = make(map[string]SheetDefinition)
	registryOrder []string
	registryMu    sync.RWMutex
)

// Register adds a sheet definition to the registry.
// Panics if a sheet with the same key is already registered or if the
// definition names columns it does not declare.
func Register(def SheetDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("sheet already registered: %s", def.Info.Key))
	}
	if def.Info.Layer == "" {
		def.Info.Layer = LayerCore
	}
	for _, name := range []string{def.Discriminant, def.KeyColumn, def.HeaderFlagColumn} {
		if name == "" {
			continue
		}
		if _, ok := def.Column(name); !ok {
			panic(fmt.Sprintf("sheet %s: column %q is not declared", def.Info.Key, name))
		}
	}

	registry[def.Info.Key] = def
	registryOrder = append(registryOrder, def.Info.Key)
}

// Get returns a sheet definition by key.
// Returns false if not found.
func Get(key string) (SheetDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered sheet definitions in registration order.
// Registration order is the configuration order: lookup sheets first,
// so list sources exist before the sheets that reference them.
func All() []SheetDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]SheetDefinition, 0, len(registryOrder))
	for _, key := range registryOrder {
		result = append(result, registry[key])
	}
	return result
}

// ByFamily returns the sheet definitions of one classification family.
func ByFamily(family Family) []SheetDefinition {
	var result []SheetDefinition
	for _, def := range All() {
		if def.Info.Family == family {
			result = append(result, def)
		}
	}
	return result
}

// ByLayer returns the sheet definitions that belong to a layer.
func ByLayer(layer Layer) []SheetDefinition {
	var result []SheetDefinition
	for _, def := range All() {
		if def.Info.Layer == layer {
			result = append(result, def)
		}
	}
	return result
}

// SheetCount returns the number of registered sheets.
func SheetCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered sheets.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]SheetDefinition)
	registryOrder = nil
}
