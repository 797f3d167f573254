// Package source provides a global registry of snapshot sources.
// Sources register themselves in init() functions, allowing the recorder
// to discover and instantiate them without hardcoded dependencies.
package source

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/tickrec/internal/core"
	"github.com/vovakirdan/tickrec/internal/tracker"
)

// Source is a host simulation that can be stepped and observed.
// Sources contain pure logic with no I/O; the recorder drives the ticks.
type Source interface {
	tracker.Snapshot

	// ID returns a unique identifier for this source (e.g. "synthetic").
	ID() string

	// Title returns a human-readable name for display.
	Title() string

	// Reset initializes or restarts the simulation from cfg.Seed.
	Reset(cfg core.RuntimeConfig)

	// Step advances the simulation by one tick.
	Step()
}

// Info contains metadata about a registered source.
type Info struct {
	ID    string
	Title string
}

// Factory creates a new instance of a source.
type Factory func() Source

var (
	factories = make(map[string]Factory)
	titles    = make(map[string]string)
	mu        sync.RWMutex
)

// Register adds a source factory to the registry.
// Panics if a source with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("source: %q already registered", id))
	}

	factories[id] = f
	titles[id] = f().Title()
}

// List returns all registered sources, sorted by ID.
func List() []Info {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Info, 0, len(factories))
	for id := range factories {
		result = append(result, Info{ID: id, Title: titles[id]})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a source by its ID.
func Create(id string) (Source, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("source: unknown source %q", id)
	}

	return f(), nil
}

// Exists checks if a source with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
