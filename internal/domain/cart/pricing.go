package cart

import (
	"github.com/pharmapos/backend/internal/domain/identity"
	"github.com/pharmapos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CapDiscount clamps a requested discount percent to [0, cap] where cap is
// identity.EffectiveCap for the role and the line's default limit.
func CapDiscount(requestedPct, defaultLimitPct decimal.Decimal, role identity.Role) decimal.Decimal {
	return valueobject.Clamp(requestedPct, decimal.Zero, identity.EffectiveCap(role, defaultLimitPct))
}

// NetAmount returns quantity * rate less appliedPct percent, before VAT.
// The result is exact; rounding happens when lines are aggregated.
func NetAmount(quantity int64, rate, appliedPct decimal.Decimal) decimal.Decimal {
	gross := rate.Mul(decimal.NewFromInt(quantity))
	return gross.Sub(valueobject.PercentOf(gross, appliedPct))
}

// PriceLine computes the net amount of a line and the discount percent that
// actually applied. Callers must use the returned percent rather than the
// one they asked for.
func PriceLine(quantity int64, rate, requestedPct, defaultLimitPct decimal.Decimal, role identity.Role) (net, appliedPct decimal.Decimal) {
	appliedPct = CapDiscount(requestedPct, defaultLimitPct, role)
	return NetAmount(quantity, rate, appliedPct), appliedPct
}
