package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmapos/backend/internal/domain/cart"
	"github.com/pharmapos/backend/internal/domain/catalog"
	"github.com/pharmapos/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// SearchResult is a catalog entry with what this session can still take from it
type SearchResult struct {
	Medicine   catalog.Medicine
	Available  int64 // Units across all batches not yet reserved by the cart
	OutOfStock bool
}

// CustomerContext carries the customer details captured at the till
type CustomerContext struct {
	CustomerID   *uuid.UUID `json:"customer_id,omitempty"`
	CustomerName string     `json:"customer_name,omitempty" validate:"max=200"`
	Phone        string     `json:"phone,omitempty" validate:"max=30"`
	Note         string     `json:"note,omitempty" validate:"max=500"`
}

// SubmissionLine is one cart line as sent to the recording system
type SubmissionLine struct {
	MedicineID  uuid.UUID       `json:"medicine_id" validate:"required"`
	BatchID     uuid.UUID       `json:"batch_id" validate:"required"`
	Quantity    int64           `json:"quantity" validate:"gt=0"`
	Rate        decimal.Decimal `json:"rate" validate:"gte=0"`
	DiscountPct decimal.Decimal `json:"discount_pct" validate:"gte=0,lte=100"`
	VATPct      decimal.Decimal `json:"vat_pct" validate:"gte=0,lte=100"`
}

// SubmissionFinance is the order-level finance block
type SubmissionFinance struct {
	ExtraDiscount decimal.Decimal       `json:"extra_discount" validate:"gte=0"`
	PaymentMethod finance.PaymentMethod `json:"payment_method" validate:"required,payment_method"`
	Paid          decimal.Decimal       `json:"paid" validate:"gte=0"`
}

// SubmissionTotals echoes the summary the till displayed
type SubmissionTotals struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	VATTotal           decimal.Decimal `json:"vat_total"`
	RoundingAdjustment decimal.Decimal `json:"rounding_adjustment"`
	NetPayable         decimal.Decimal `json:"net_payable" validate:"gte=0"`
	Due                decimal.Decimal `json:"due" validate:"gte=0"`
}

// SaleSubmission is the payload a finished checkout produces
type SaleSubmission struct {
	SubmissionID uuid.UUID         `json:"submission_id" validate:"required"`
	SessionID    uuid.UUID         `json:"session_id" validate:"required"`
	OperatorID   uuid.UUID         `json:"operator_id" validate:"required"`
	Currency     string            `json:"currency" validate:"required,len=3"`
	Customer     CustomerContext   `json:"customer"`
	Lines        []SubmissionLine  `json:"lines" validate:"required,min=1,dive"`
	Finance      SubmissionFinance `json:"finance"`
	Totals       SubmissionTotals  `json:"totals"`
	CreatedAt    time.Time         `json:"created_at"`
}

// SubmissionReceipt is returned by the recording system on success
type SubmissionReceipt struct {
	SaleID        string    `json:"sale_id"`
	InvoiceNumber string    `json:"invoice_number,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// ToSubmissionLine converts a cart line
func ToSubmissionLine(l cart.Line) SubmissionLine {
	return SubmissionLine{
		MedicineID:  l.MedicineID,
		BatchID:     l.BatchID,
		Quantity:    l.Quantity,
		Rate:        l.Rate,
		DiscountPct: l.DiscountPct,
		VATPct:      l.VATPct,
	}
}

// ToSubmissionTotals converts a summary
func ToSubmissionTotals(s finance.Summary) SubmissionTotals {
	return SubmissionTotals{
		Subtotal:           s.Subtotal,
		VATTotal:           s.VATTotal,
		RoundingAdjustment: s.RoundingAdjustment,
		NetPayable:         s.NetPayable,
		Due:                s.Due,
	}
}
