package batch

import (
	"sort"
	"time"

	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/shared/strategy"
)

// FIFOBatchStrategy implements First In First Out batch ordering.
// The oldest received batch is drawn down first.
type FIFOBatchStrategy struct {
	strategy.BaseStrategy
}

// NewFIFOBatchStrategy creates a new FIFO batch strategy
func NewFIFOBatchStrategy() *FIFOBatchStrategy {
	return &FIFOBatchStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"fifo",
			strategy.StrategyTypeBatch,
			"First In First Out - draws the oldest received batch first",
		),
	}
}

// Order returns the batches oldest-received first
func (s *FIFOBatchStrategy) Order(batches []catalog.StockBatch) []catalog.StockBatch {
	ordered := copyBatches(batches)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ReceivedAt.Before(ordered[j].ReceivedAt)
	})
	return ordered
}

// ConsidersExpiry returns false as FIFO orders by received date only
func (s *FIFOBatchStrategy) ConsidersExpiry() bool {
	return false
}

func copyBatches(batches []catalog.StockBatch) []catalog.StockBatch {
	out := make([]catalog.StockBatch, len(batches))
	copy(out, batches)
	return out
}

// filterNonExpiredBatches drops batches that expired before now. Batches
// without an expiry date are kept.
func filterNonExpiredBatches(batches []catalog.StockBatch, now time.Time) []catalog.StockBatch {
	filtered := make([]catalog.StockBatch, 0, len(batches))
	for _, b := range batches {
		if !b.IsExpired(now) {
			filtered = append(filtered, b)
		}
	}
	return filtered
}
