package supervised

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"modelfusion/internal/model"
)

var (
	ErrKindExists   = errors.New("predictor kind already registered")
	ErrKindNotFound = errors.New("no predictor registered for kind")
)

// Factory builds a runtime predictor from a downloaded resource descriptor.
type Factory func(resource map[string]any, settings *model.OperationSettings) (Predictor, error)

var registry = struct {
	mu sync.RWMutex
	m  map[string]Factory
}{
	m: make(map[string]Factory),
}

// Register installs the factory for a resource kind ("model", "ensemble",
// "logisticregression", "deepnet", "linearregression").
func Register(kind string, factory Factory) error {
	if kind == "" {
		return errors.New("predictor kind is required")
	}
	if factory == nil {
		return errors.New("predictor factory is required")
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.m[kind]; exists {
		return fmt.Errorf("%w: %s", ErrKindExists, kind)
	}
	registry.m[kind] = factory
	return nil
}

// New dispatches the registered factory for kind.
func New(kind string, resource map[string]any, settings *model.OperationSettings) (Predictor, error) {
	registry.mu.RLock()
	factory, ok := registry.m[kind]
	registry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKindNotFound, kind)
	}
	return factory(resource, settings)
}

// Kinds lists the registered kinds, sorted.
func Kinds() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	kinds := make([]string, 0, len(registry.m))
	for kind := range registry.m {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func resetRegistryForTests() {
	registry.mu.Lock()
	registry.m = make(map[string]Factory)
	registry.mu.Unlock()
}
