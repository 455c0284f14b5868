package brokers

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"integration-gateway/internal/common/errors"
)

// Registry maps a BROKER_TYPE value to the factory that builds the queue
// backend for fire-and-forget requests. Type names are case-insensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]BrokerFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]BrokerFactory)}
}

// Register adds factory under brokerType. It panics on a nil factory or a
// type that is already registered, since both are wiring mistakes.
func (r *Registry) Register(brokerType string, factory BrokerFactory) {
	if factory == nil {
		panic("brokers: Register factory is nil for " + brokerType)
	}
	key := strings.ToLower(brokerType)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[key]; dup {
		panic("brokers: Register called twice for " + key)
	}
	r.factories[key] = factory
}

// Create validates config and builds a broker of the given type.
func (r *Registry) Create(brokerType string, config BrokerConfig) (Broker, error) {
	key := strings.ToLower(brokerType)

	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.ConfigError(fmt.Sprintf("broker type %s not registered (available: %s)",
			brokerType, strings.Join(r.Types(), ", ")))
	}

	if config == nil {
		return nil, errors.ConfigError(fmt.Sprintf("%s broker config is required", key))
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("invalid %s broker config: %v", key, err))
	}

	return factory.Create(config)
}

// Types returns the registered broker types in sorted order
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for brokerType := range r.factories {
		types = append(types, brokerType)
	}
	sort.Strings(types)
	return types
}

func (r *Registry) IsRegistered(brokerType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[strings.ToLower(brokerType)]
	return ok
}
