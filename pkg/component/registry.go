package component

import (
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Factory builds a component. A nil component with a nil error means the
// component is disabled by configuration.
type Factory func(deps Dependencies) (Component, error)

type factorySet struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var factories = &factorySet{factories: make(map[string]Factory)}

// Register is called from package init; registering a name twice panics.
func Register(name string, factory Factory) {
	factories.mu.Lock()
	defer factories.mu.Unlock()

	if _, exists := factories.factories[name]; exists {
		panic(fmt.Sprintf("component %s already registered", name))
	}
	factories.factories[name] = factory
}

func Get(name string) (Factory, bool) {
	factories.mu.RLock()
	defer factories.mu.RUnlock()
	f, ok := factories.factories[name]
	return f, ok
}

// List returns the registered names, sorted.
func List() []string {
	factories.mu.RLock()
	names := lo.Keys(factories.factories)
	factories.mu.RUnlock()

	slices.Sort(names)
	return names
}

// LoadAll builds every registered component in name order, skipping the
// disabled ones.
func LoadAll(deps Dependencies) ([]Component, error) {
	var loaded []Component
	for _, name := range List() {
		factory, _ := Get(name)
		comp, err := factory(deps)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", name, err)
		}
		if comp != nil {
			loaded = append(loaded, comp)
		}
	}
	return loaded, nil
}
