package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one batch-bound slice of a sale
type Line struct {
	ID                   uuid.UUID
	MedicineID           uuid.UUID
	MedicineName         string
	GenericName          string
	Unit                 string
	BatchID              uuid.UUID
	BatchNumber          string
	ExpiryDate           *time.Time
	BatchSnapshotQty     int64           // Batch quantity when the line was last drawn from; ceiling for edits
	Quantity             int64           // Always >= 1
	Rate                 decimal.Decimal // Unit rate
	DefaultDiscountLimit decimal.Decimal // Medicine default discount at allocation time
	DiscountPct          decimal.Decimal // Applied (capped) discount percent
	VATPct               decimal.Decimal // VAT percent, 0-100
	Amount               decimal.Decimal // Net of line discount, before VAT
	AddedAt              time.Time
}

// Gross returns quantity * rate
func (l Line) Gross() decimal.Decimal {
	return l.Rate.Mul(decimal.NewFromInt(l.Quantity))
}

// DiscountAmount returns the money taken off by the line discount
func (l Line) DiscountAmount() decimal.Decimal {
	return l.Gross().Sub(l.Amount)
}

func (l *Line) recalculate() {
	l.Amount = NetAmount(l.Quantity, l.Rate, l.DiscountPct)
}

func (l Line) mergesWith(batchID uuid.UUID, rate, discountPct, vatPct decimal.Decimal) bool {
	return l.BatchID == batchID &&
		l.Rate.Equal(rate) &&
		l.DiscountPct.Equal(discountPct) &&
		l.VATPct.Equal(vatPct)
}
