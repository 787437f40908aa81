package cart

import (
	"sort"

	"github.com/google/uuid"
	"github.com/pharmapos/backend/internal/domain/catalog"
)

// OrderByRecency returns the batches sorted newest-received first. Batches
// received at the same instant keep their original relative order. The input
// slice is not modified.
//
// This is the sale policy: the most recently received batch is drawn down
// first (LIFO).
func OrderByRecency(batches []catalog.StockBatch) []catalog.StockBatch {
	ordered := make([]catalog.StockBatch, len(batches))
	copy(ordered, batches)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ReceivedAt.After(ordered[j].ReceivedAt)
	})
	return ordered
}

// ReservedQuantity returns the quantity of a batch claimed by lines in the cart
func ReservedQuantity(c *Cart, batchID uuid.UUID) int64 {
	if c == nil {
		return 0
	}
	var reserved int64
	for i := range c.lines {
		if c.lines[i].BatchID == batchID {
			reserved += c.lines[i].Quantity
		}
	}
	return reserved
}

// AvailableInBatch returns how much of the batch the cart can still draw
func AvailableInBatch(c *Cart, b catalog.StockBatch) int64 {
	available := b.CurrentQuantity - ReservedQuantity(c, b.ID)
	if available < 0 {
		return 0
	}
	return available
}

// AvailableForMedicine returns the usable quantity across the batches the
// cart's ordering will draw from, so batches an ordering leaves out (expired
// ones under FEFO) are not counted. It is meant for search results (e.g.
// disabling out-of-stock items); allocation works batch by batch.
func AvailableForMedicine(c *Cart, m catalog.Medicine) int64 {
	batches := m.Batches
	if c != nil && c.ordering != nil {
		batches = c.ordering.Order(m.Batches)
	}
	var total int64
	for _, b := range batches {
		total += AvailableInBatch(c, b)
	}
	return total
}
