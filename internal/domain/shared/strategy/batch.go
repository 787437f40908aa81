package strategy

import (
	"github.com/pharmapos/backend/internal/domain/catalog"
)

// BatchOrderingStrategy decides the order in which a medicine's batches are
// drawn during allocation. It satisfies cart.BatchOrdering.
type BatchOrderingStrategy interface {
	Strategy
	// Order returns the batches to draw from, in draw order. The input is
	// not modified. A strategy may leave batches out (e.g. expired stock).
	Order(batches []catalog.StockBatch) []catalog.StockBatch
	// ConsidersExpiry returns true if the strategy looks at expiry dates
	ConsidersExpiry() bool
}
