package warehouse

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/forklift/pkg/config"
	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/logger"
)

// Registry manages destination factories by name
type Registry struct {
	destinations map[string]Factory
	mu           sync.RWMutex
	logger       *zap.Logger
}

// globalRegistry is the default registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new destination registry
func NewRegistry() *Registry {
	return &Registry{
		destinations: make(map[string]Factory),
		logger:       logger.Get().With(zap.String("component", "warehouse_registry")),
	}
}

// RegisterDestination registers a destination factory under a name
func (r *Registry) RegisterDestination(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.destinations[name]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "destination %s already registered", name)
	}

	r.destinations[name] = factory
	r.logger.Debug("registered destination", zap.String("name", name))
	return nil
}

// CreateDestination creates a destination by name from load settings
func (r *Registry) CreateDestination(name string, cfg config.LoadConfig) (Destination, error) {
	r.mu.RLock()
	factory, exists := r.destinations[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeConfig, "destination %s not found", name).
			WithDetail("available", r.ListDestinations())
	}

	dest, err := factory(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create destination: %s", name))
	}

	return dest, nil
}

// ListDestinations returns registered destination names in sorted order
func (r *Registry) ListDestinations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.destinations))
	for name := range r.destinations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasDestination reports whether a destination name is registered
func (r *Registry) HasDestination(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.destinations[name]
	return exists
}

// Clear removes all registered destinations. Intended for tests.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.destinations = make(map[string]Factory)
}

// RegisterDestination registers a destination factory in the global registry
func RegisterDestination(name string, factory Factory) error {
	return globalRegistry.RegisterDestination(name, factory)
}

// CreateDestination creates a destination from the global registry
func CreateDestination(name string, cfg config.LoadConfig) (Destination, error) {
	return globalRegistry.CreateDestination(name, cfg)
}

// ListDestinations returns destination names from the global registry
func ListDestinations() []string {
	return globalRegistry.ListDestinations()
}

// HasDestination reports whether the global registry knows a destination
func HasDestination(name string) bool {
	return globalRegistry.HasDestination(name)
}

// GetRegistry returns the global registry instance
func GetRegistry() *Registry {
	return globalRegistry
}
