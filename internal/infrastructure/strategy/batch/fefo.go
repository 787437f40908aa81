package batch

import (
	"sort"
	"time"

	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/shared/strategy"
)

// FEFOBatchStrategy implements First Expired First Out batch ordering.
// Batches are drawn by expiry date (earliest first); batches without an
// expiry date go last. Expired batches are left out so they cannot be sold.
type FEFOBatchStrategy struct {
	strategy.BaseStrategy
	now func() time.Time
}

// FEFOOption configures a FEFOBatchStrategy
type FEFOOption func(*FEFOBatchStrategy)

// WithClock sets the clock used to decide whether a batch has expired
func WithClock(now func() time.Time) FEFOOption {
	return func(s *FEFOBatchStrategy) {
		if now != nil {
			s.now = now
		}
	}
}

// NewFEFOBatchStrategy creates a new FEFO batch strategy
func NewFEFOBatchStrategy(opts ...FEFOOption) *FEFOBatchStrategy {
	s := &FEFOBatchStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"fefo",
			strategy.StrategyTypeBatch,
			"First Expired First Out - draws the batch that expires soonest first",
		),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Order returns the unexpired batches earliest-expiry first
func (s *FEFOBatchStrategy) Order(batches []catalog.StockBatch) []catalog.StockBatch {
	ordered := filterNonExpiredBatches(batches, s.now())
	sort.SliceStable(ordered, func(i, j int) bool {
		iExpiry := ordered[i].ExpiryDate
		jExpiry := ordered[j].ExpiryDate

		// Neither expires: oldest stock first
		if iExpiry == nil && jExpiry == nil {
			return ordered[i].ReceivedAt.Before(ordered[j].ReceivedAt)
		}
		if iExpiry == nil {
			return false
		}
		if jExpiry == nil {
			return true
		}
		if iExpiry.Equal(*jExpiry) {
			return ordered[i].ReceivedAt.Before(ordered[j].ReceivedAt)
		}
		return iExpiry.Before(*jExpiry)
	})
	return ordered
}

// ConsidersExpiry returns true as FEFO orders by expiry date
func (s *FEFOBatchStrategy) ConsidersExpiry() bool {
	return true
}
