package strategy

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pharmapos/backend/internal/domain/shared"
	"github.com/pharmapos/backend/internal/domain/shared/strategy"
)

// StrategyRegistry manages batch ordering strategy registrations. It is safe
// for concurrent use so several tills can share one registry.
type StrategyRegistry struct {
	mu              sync.RWMutex
	batchStrategies map[string]strategy.BatchOrderingStrategy
	defaults        map[strategy.StrategyType]string
}

// NewStrategyRegistry creates an empty strategy registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		batchStrategies: make(map[string]strategy.BatchOrderingStrategy),
		defaults:        make(map[strategy.StrategyType]string),
	}
}

// RegisterBatchStrategy registers a batch ordering strategy
func (r *StrategyRegistry) RegisterBatchStrategy(s strategy.BatchOrderingStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.batchStrategies[name]; exists {
		return fmt.Errorf("%w: batch strategy '%s' already registered", shared.ErrAlreadyExists, name)
	}
	r.batchStrategies[name] = s
	return nil
}

// GetBatchStrategy returns a batch strategy by name (case-insensitive), or
// the default if name is empty
func (r *StrategyRegistry) GetBatchStrategy(name string) (strategy.BatchOrderingStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = r.defaults[strategy.StrategyTypeBatch]
		if name == "" {
			return nil, fmt.Errorf("%w: no default batch strategy set", shared.ErrNotFound)
		}
	}

	s, exists := r.batchStrategies[name]
	if !exists {
		return nil, fmt.Errorf("%w: batch strategy '%s' not found", shared.ErrNotFound, name)
	}
	return s, nil
}

// GetBatchStrategyOrDefault returns a batch strategy by name, or the default
// if not found
func (r *StrategyRegistry) GetBatchStrategyOrDefault(name string) strategy.BatchOrderingStrategy {
	s, err := r.GetBatchStrategy(name)
	if err != nil {
		s, _ = r.GetBatchStrategy("")
	}
	return s
}

// ListBatchStrategies returns all registered batch strategy names
func (r *StrategyRegistry) ListBatchStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.batchStrategies))
	for name := range r.batchStrategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnregisterBatchStrategy removes a batch strategy
func (r *StrategyRegistry) UnregisterBatchStrategy(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.batchStrategies[name]; !exists {
		return fmt.Errorf("%w: batch strategy '%s' not found", shared.ErrNotFound, name)
	}
	delete(r.batchStrategies, name)

	// Clear default if it was this strategy
	if r.defaults[strategy.StrategyTypeBatch] == name {
		delete(r.defaults, strategy.StrategyTypeBatch)
	}
	return nil
}

// SetDefault sets the default strategy for a strategy type
func (r *StrategyRegistry) SetDefault(strategyType strategy.StrategyType, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRegisteredLocked(strategyType, name) {
		return fmt.Errorf("%w: strategy '%s' of type '%s' not found", shared.ErrNotFound, name, strategyType)
	}
	r.defaults[strategyType] = name
	return nil
}

// GetDefault returns the default strategy name for a strategy type
func (r *StrategyRegistry) GetDefault(strategyType strategy.StrategyType) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults[strategyType]
}

func (r *StrategyRegistry) isRegisteredLocked(strategyType strategy.StrategyType, name string) bool {
	switch strategyType {
	case strategy.StrategyTypeBatch:
		_, ok := r.batchStrategies[name]
		return ok
	default:
		return false
	}
}
