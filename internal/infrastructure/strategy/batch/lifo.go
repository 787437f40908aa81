package batch

import (
	"github.com/pharmapos/backend/internal/domain/cart"
	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/shared/strategy"
)

// LIFOBatchStrategy implements Last In First Out batch ordering.
// The most recently received batch is drawn down first; batches received at
// the same instant keep their catalog order. Expiry dates are not consulted.
type LIFOBatchStrategy struct {
	strategy.BaseStrategy
}

// NewLIFOBatchStrategy creates a new LIFO batch strategy
func NewLIFOBatchStrategy() *LIFOBatchStrategy {
	return &LIFOBatchStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"lifo",
			strategy.StrategyTypeBatch,
			"Last In First Out - draws the most recently received batch first",
		),
	}
}

// Order returns the batches newest-received first
func (s *LIFOBatchStrategy) Order(batches []catalog.StockBatch) []catalog.StockBatch {
	return cart.OrderByRecency(batches)
}

// ConsidersExpiry returns false as LIFO orders by received date only
func (s *LIFOBatchStrategy) ConsidersExpiry() bool {
	return false
}
