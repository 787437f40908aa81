package strategy

import (
	"github.com/pharmapos/backend/internal/domain/shared/strategy"
	"github.com/pharmapos/backend/internal/infrastructure/strategy/batch"
)

// NewRegistryWithDefaults creates a registry with the lifo, fifo and fefo
// batch strategies registered and lifo as the default.
// FEFO options (such as its clock) are passed through.
func NewRegistryWithDefaults(fefoOpts ...batch.FEFOOption) (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	lifo := batch.NewLIFOBatchStrategy()
	if err := r.RegisterBatchStrategy(lifo); err != nil {
		return nil, err
	}
	if err := r.RegisterBatchStrategy(batch.NewFIFOBatchStrategy()); err != nil {
		return nil, err
	}
	if err := r.RegisterBatchStrategy(batch.NewFEFOBatchStrategy(fefoOpts...)); err != nil {
		return nil, err
	}

	if err := r.SetDefault(strategy.StrategyTypeBatch, lifo.Name()); err != nil {
		return nil, err
	}
	return r, nil
}
