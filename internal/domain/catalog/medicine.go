package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pharmapos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Medicine is a catalog entry as returned by a search: the medicine with
// the batches available at query time. Entries are snapshots and are not
// kept beyond a single allocation.
type Medicine struct {
	ID                 uuid.UUID
	Name               string
	GenericName        string
	Unit               string          // Selling unit (e.g., "tab", "strip", "bottle")
	DefaultDiscountPct decimal.Decimal // Default discount percent, also the staff discount limit (clamped when priced)
	VATPct             decimal.Decimal // VAT percent applied to lines of this medicine
	Batches            []StockBatch
}

// Validate checks the entry and every batch in it. Percent fields are not
// range-checked; pricing clamps them to [0, 100].
func (m Medicine) Validate() error {
	if m.ID == uuid.Nil {
		return shared.NewDomainError("INVALID_MEDICINE", "Medicine ID cannot be empty")
	}
	if strings.TrimSpace(m.Name) == "" {
		return shared.NewDomainError("INVALID_MEDICINE_NAME", "Medicine name cannot be empty")
	}

	seen := make(map[uuid.UUID]struct{}, len(m.Batches))
	for i, b := range m.Batches {
		if err := b.Validate(); err != nil {
			return err
		}
		if b.MedicineID != m.ID {
			return shared.NewDomainError("INVALID_BATCH",
				fmt.Sprintf("Batch at index %d belongs to another medicine", i))
		}
		if _, dup := seen[b.ID]; dup {
			return shared.NewDomainError("DUPLICATE_BATCH",
				fmt.Sprintf("Batch %s listed more than once", b.BatchNumber))
		}
		seen[b.ID] = struct{}{}
	}
	return nil
}

// FindBatch returns the batch with the given ID
func (m Medicine) FindBatch(id uuid.UUID) (StockBatch, bool) {
	for _, b := range m.Batches {
		if b.ID == id {
			return b, true
		}
	}
	return StockBatch{}, false
}

// TotalOnHand returns the sum of current quantity across all batches,
// ignoring anything reserved by a cart
func (m Medicine) TotalOnHand() int64 {
	var total int64
	for _, b := range m.Batches {
		total += b.CurrentQuantity
	}
	return total
}
