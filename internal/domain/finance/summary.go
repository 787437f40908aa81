package finance

import (
	"github.com/pharmapos/backend/internal/domain/cart"
	"github.com/pharmapos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Summary is the financial view of a cart. It is derived on every call and
// has no state of its own. All amounts are settled to two decimal places.
type Summary struct {
	Subtotal           decimal.Decimal // Sum of line amounts, net of line discounts, before VAT
	LineDiscountTotal  decimal.Decimal // Money taken off by line discounts
	ExtraDiscount      decimal.Decimal // Order-level discount actually applied
	VATTotal           decimal.Decimal
	RoundingAdjustment decimal.Decimal
	NetPayable         decimal.Decimal
	Paid               decimal.Decimal
	Due                decimal.Decimal

	ExtraDiscountCapped bool // Extra discount input was outside [0, Subtotal]
	PaidCapped          bool // Paid input was outside [0, NetPayable]
}

// IsSettled returns true if nothing remains due
func (s Summary) IsSettled() bool {
	return s.Due.IsZero()
}

// Summarize reduces the cart lines plus the order-level inputs to a
// reconciled Summary.
//
// The extra discount is spread over the lines in proportion to their share
// of the subtotal before VAT is charged, so every line pays VAT on its own
// discounted base. Rounding is half away from zero at each step.
func Summarize(lines []cart.Line, extraDiscountInput, paidInput decimal.Decimal) Summary {
	var sum, lineDiscount decimal.Decimal
	for _, l := range lines {
		sum = sum.Add(l.Amount)
		lineDiscount = lineDiscount.Add(l.DiscountAmount())
	}
	subtotal := valueobject.Round2(sum)

	extra := valueobject.Round2(valueobject.Clamp(extraDiscountInput, decimal.Zero, subtotal))

	var vat decimal.Decimal
	for _, l := range lines {
		netAfterExtra := l.Amount
		if subtotal.IsPositive() {
			netAfterExtra = l.Amount.Sub(extra.Mul(l.Amount).Div(subtotal))
		}
		if netAfterExtra.IsNegative() {
			netAfterExtra = decimal.Zero
		}
		vat = vat.Add(valueobject.PercentOf(netAfterExtra, valueobject.ClampPercent(l.VATPct)))
	}
	vatTotal := valueobject.Round2(vat)

	base := subtotal.Sub(extra)
	if base.IsNegative() {
		base = decimal.Zero
	}
	raw := base.Add(vatTotal)
	adjustment := valueobject.Round2(valueobject.Round2(raw).Sub(raw))
	netPayable := valueobject.Round2(raw.Add(adjustment))

	paid := valueobject.Round2(valueobject.Clamp(paidInput, decimal.Zero, netPayable))
	due := netPayable.Sub(paid)
	if due.IsNegative() {
		due = decimal.Zero
	}

	return Summary{
		Subtotal:            subtotal,
		LineDiscountTotal:   valueobject.Round2(lineDiscount),
		ExtraDiscount:       extra,
		VATTotal:            vatTotal,
		RoundingAdjustment:  adjustment,
		NetPayable:          netPayable,
		Paid:                paid,
		Due:                 valueobject.Round2(due),
		ExtraDiscountCapped: extraDiscountInput.IsNegative() || extraDiscountInput.GreaterThan(subtotal),
		PaidCapped:          paidInput.IsNegative() || paidInput.GreaterThan(netPayable),
	}
}

// Change returns the cash to hand back when the customer tenders more than
// the net payable. Paid on the summary stays clamped; change is reported
// separately.
func Change(tendered decimal.Decimal, s Summary) decimal.Decimal {
	change := valueobject.Round2(tendered).Sub(s.NetPayable)
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}
