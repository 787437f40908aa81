package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmapos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockBatch represents one received lot of a medicine.
// CurrentQuantity is maintained by the inventory system; the cart only
// reserves against it.
type StockBatch struct {
	ID              uuid.UUID
	MedicineID      uuid.UUID
	BatchNumber     string          // Batch/lot number printed on the pack
	ExpiryDate      *time.Time      // Expiry date (optional)
	CurrentQuantity int64           // Units on hand at query time
	SalesRate       decimal.Decimal // Sale price per unit for this batch
	ReceivedAt      time.Time       // When the batch was received; drives recency ordering
}

// Validate checks the batch invariants that the cart relies on
func (b StockBatch) Validate() error {
	if b.ID == uuid.Nil {
		return shared.NewDomainError("INVALID_BATCH", "Batch ID cannot be empty")
	}
	if b.CurrentQuantity < 0 {
		return shared.NewDomainError("INVALID_BATCH_QUANTITY", "Batch quantity cannot be negative")
	}
	if b.SalesRate.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Batch sales rate cannot be negative")
	}
	return nil
}

// IsExpired returns true if the batch has expired at the given instant
func (b StockBatch) IsExpired(now time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(now)
}

// WillExpireWithin returns true if the batch will expire within the given duration
func (b StockBatch) WillExpireWithin(now time.Time, duration time.Duration) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(now.Add(duration))
}

// DaysUntilExpiry returns the number of days until expiry, -1 if no expiry date
func (b StockBatch) DaysUntilExpiry(now time.Time) int {
	if b.ExpiryDate == nil {
		return -1
	}
	return int(b.ExpiryDate.Sub(now).Hours() / 24)
}

// HasStock returns true if the batch has units on hand
func (b StockBatch) HasStock() bool {
	return b.CurrentQuantity > 0
}
