package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationStatus summarizes how much of a request was satisfied
type AllocationStatus string

const (
	AllocationComplete AllocationStatus = "COMPLETE" // Everything requested was allocated
	AllocationPartial  AllocationStatus = "PARTIAL"  // Some was allocated, the rest is Shortfall
	AllocationRejected AllocationStatus = "REJECTED" // Nothing was allocated
)

// Draw records stock taken from one batch during an allocation
type Draw struct {
	LineID      uuid.UUID
	BatchID     uuid.UUID
	BatchNumber string
	Quantity    int64
	Rate        decimal.Decimal
	DiscountPct decimal.Decimal
	Merged      bool // Added to an existing line instead of creating one
}

// AllocationResult is returned by Cart.Allocate
type AllocationResult struct {
	MedicineID uuid.UUID
	Requested  int64
	Available  int64 // Usable stock across all batches before the allocation
	Allocated  int64
	Shortfall  int64 // Requested minus what could be fulfilled; never silently dropped
	Status     AllocationStatus
	Draws      []Draw // In draw order
}

// HasShortfall returns true if the request could not be fully met
func (r AllocationResult) HasShortfall() bool {
	return r.Shortfall > 0
}

// QuantityResult is returned by quantity edits
type QuantityResult struct {
	LineID    uuid.UUID
	Line      Line  // State after the edit; zero value when Removed
	Requested int64
	Applied   int64
	Max       int64 // Ceiling at the time of the edit
	Capped    bool  // Requested exceeded Max and was clamped
	Removed   bool  // Max was zero so the line was removed
	Reason    string
}

// DiscountResult is returned by discount edits
type DiscountResult struct {
	LineID    uuid.UUID
	Line      Line
	Requested decimal.Decimal
	Applied   decimal.Decimal
	Cap       decimal.Decimal
	Capped    bool // Applied differs from Requested
}
