package finance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pharmapos/backend/internal/domain/cart"
	"github.com/pharmapos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newLine(qty int64, rate, discount, vat string) cart.Line {
	return cart.Line{
		ID:          uuid.New(),
		MedicineID:  uuid.New(),
		BatchID:     uuid.New(),
		Quantity:    qty,
		Rate:        dec(rate),
		DiscountPct: dec(discount),
		VATPct:      dec(vat),
		Amount:      cart.NetAmount(qty, dec(rate), dec(discount)),
	}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "%s: want %s, got %s", field, want, got)
}

func TestSummarize_SingleLineScenario(t *testing.T) {
	lines := []cart.Line{newLine(4, "20.00", "5", "7.5")}

	s := Summarize(lines, dec("0"), dec("50"))

	assertDec(t, "76.00", s.Subtotal, "subtotal")
	assertDec(t, "4.00", s.LineDiscountTotal, "line discount")
	assertDec(t, "0", s.ExtraDiscount, "extra")
	assertDec(t, "5.70", s.VATTotal, "vat")
	assertDec(t, "0", s.RoundingAdjustment, "adjustment")
	assertDec(t, "81.70", s.NetPayable, "net payable")
	assertDec(t, "50.00", s.Paid, "paid")
	assertDec(t, "31.70", s.Due, "due")
	assert.False(t, s.ExtraDiscountCapped)
	assert.False(t, s.PaidCapped)
	assert.False(t, s.IsSettled())
}

func TestSummarize_FullExtraDiscount(t *testing.T) {
	lines := []cart.Line{newLine(4, "20.00", "5", "7.5")}

	for _, paid := range []string{"0", "0.01", "50", "1000"} {
		t.Run("paid "+paid, func(t *testing.T) {
			s := Summarize(lines, dec("76.00"), dec(paid))
			assertDec(t, "76.00", s.ExtraDiscount, "extra")
			assertDec(t, "0.00", s.VATTotal, "vat")
			assertDec(t, "0.00", s.NetPayable, "net payable")
			assertDec(t, "0.00", s.Paid, "paid")
			assertDec(t, "0.00", s.Due, "due")
			assert.False(t, s.ExtraDiscountCapped)
			assert.True(t, s.IsSettled())
		})
	}
}

func TestSummarize_ExtraDiscountClamp(t *testing.T) {
	lines := []cart.Line{newLine(4, "20.00", "5", "7.5")}

	tests := []struct {
		name   string
		input  string
		want   string
		capped bool
	}{
		{"negative", "-5", "0", true},
		{"zero", "0", "0", false},
		{"within", "10.004", "10.00", false},
		{"half cent rounds away from zero", "10.005", "10.01", false},
		{"equal to subtotal", "76", "76", false},
		{"above subtotal", "90", "76", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(lines, dec(tt.input), decimal.Zero)
			assertDec(t, tt.want, s.ExtraDiscount, "extra")
			assert.Equal(t, tt.capped, s.ExtraDiscountCapped)
		})
	}
}

func TestSummarize_MixedVAT(t *testing.T) {
	t.Run("extra discount spread by share", func(t *testing.T) {
		lines := []cart.Line{
			newLine(1, "100", "0", "0"),
			newLine(1, "50", "0", "10"),
		}
		s := Summarize(lines, dec("30"), decimal.Zero)

		assertDec(t, "150", s.Subtotal, "subtotal")
		// 50 - 30*(50/150) = 40, VAT 10% = 4
		assertDec(t, "4", s.VATTotal, "vat")
		assertDec(t, "124", s.NetPayable, "net payable")
	})

	t.Run("fractional shares round once on the total", func(t *testing.T) {
		lines := []cart.Line{
			newLine(1, "33.33", "0", "5"),
			newLine(1, "66.67", "0", "15"),
		}
		s := Summarize(lines, dec("10"), decimal.Zero)

		// 29.997*5% + 60.003*15% = 1.49985 + 9.00045 = 10.5003
		assertDec(t, "100", s.Subtotal, "subtotal")
		assertDec(t, "10.50", s.VATTotal, "vat")
		assertDec(t, "100.50", s.NetPayable, "net payable")
		assertDec(t, "100.50", s.Due, "due")
	})

	t.Run("VAT percent outside 0-100 is clamped", func(t *testing.T) {
		lines := []cart.Line{
			newLine(1, "10", "0", "150"),
			newLine(1, "10", "0", "-5"),
		}
		s := Summarize(lines, decimal.Zero, decimal.Zero)
		assertDec(t, "10", s.VATTotal, "vat")
	})
}

func TestSummarize_SubtotalRounding(t *testing.T) {
	// Each line is worth half a cent after discount
	lines := []cart.Line{newLine(1, "0.01", "50", "0")}
	s := Summarize(lines, decimal.Zero, decimal.Zero)
	assertDec(t, "0.01", s.Subtotal, "subtotal")
	assertDec(t, "0.01", s.NetPayable, "net payable")

	lines = []cart.Line{newLine(1, "3.33", "10", "0"), newLine(1, "3.33", "10", "0")}
	s = Summarize(lines, decimal.Zero, decimal.Zero)
	// 2.997 + 2.997 = 5.994
	assertDec(t, "5.99", s.Subtotal, "subtotal")
	assertDec(t, "0.67", s.LineDiscountTotal, "line discount")
}

func TestSummarize_EmptyCart(t *testing.T) {
	s := Summarize(nil, dec("10"), dec("10"))

	assert.True(t, s.Subtotal.IsZero())
	assert.True(t, s.ExtraDiscount.IsZero())
	assert.True(t, s.VATTotal.IsZero())
	assert.True(t, s.NetPayable.IsZero())
	assert.True(t, s.Paid.IsZero())
	assert.True(t, s.Due.IsZero())
	assert.True(t, s.ExtraDiscountCapped)
	assert.True(t, s.PaidCapped)
}

func TestSummarize_Reconciles(t *testing.T) {
	carts := map[string][]cart.Line{
		"single": {newLine(4, "20.00", "5", "7.5")},
		"mixed": {
			newLine(3, "12.35", "2.5", "5"),
			newLine(7, "0.99", "0", "15"),
			newLine(2, "149.90", "10", "7.5"),
		},
		"odd rates": {
			newLine(13, "1.07", "3.3", "7.5"),
			newLine(1, "999.99", "0", "0"),
			newLine(9, "2.345", "12.5", "2.25"),
		},
	}
	extras := []string{"0", "0.01", "3.33", "17.505", "50", "100000"}
	payments := []string{"-1", "0", "25.55", "81.70", "99999"}

	for name, lines := range carts {
		for _, extra := range extras {
			for _, paid := range payments {
				s := Summarize(lines, dec(extra), dec(paid))

				reconstructed := valueobject.Round2(s.Subtotal.Sub(s.ExtraDiscount).Add(s.VATTotal).Add(s.RoundingAdjustment))
				require.True(t, reconstructed.Equal(s.NetPayable),
					"%s extra=%s: %s != %s", name, extra, reconstructed, s.NetPayable)
				require.True(t, s.Due.Equal(s.NetPayable.Sub(s.Paid)),
					"%s extra=%s paid=%s: due %s", name, extra, paid, s.Due)

				for _, v := range []decimal.Decimal{s.Subtotal, s.ExtraDiscount, s.VATTotal, s.NetPayable, s.Paid, s.Due} {
					assert.True(t, v.Equal(valueobject.Round2(v)), "%s is not settled to cents", v)
					assert.False(t, v.IsNegative())
				}
			}
		}
	}
}

func TestSummarize_PaidClampMonotonic(t *testing.T) {
	lines := []cart.Line{
		newLine(2, "45.50", "5", "7.5"),
		newLine(1, "12.00", "0", "15"),
	}

	prevDue := Summarize(lines, decimal.Zero, decimal.Zero).Due
	for cents := int64(0); cents <= 20000; cents += 737 {
		paidInput := decimal.New(cents, -2)
		s := Summarize(lines, decimal.Zero, paidInput)

		assert.True(t, s.Paid.LessThanOrEqual(s.NetPayable))
		assert.False(t, s.Due.IsNegative())
		assert.True(t, s.Due.LessThanOrEqual(prevDue))
		assert.Equal(t, paidInput.GreaterThan(s.NetPayable), s.PaidCapped)
		prevDue = s.Due
	}

	s := Summarize(lines, decimal.Zero, dec("100000"))
	assert.True(t, s.Paid.Equal(s.NetPayable))
	assert.True(t, s.IsSettled())
}

func TestChange(t *testing.T) {
	s := Summarize([]cart.Line{newLine(4, "20.00", "5", "7.5")}, decimal.Zero, dec("100"))
	require.True(t, s.PaidCapped)

	assertDec(t, "18.30", Change(dec("100"), s), "change")
	assertDec(t, "0", Change(dec("81.70"), s), "exact")
	assertDec(t, "0", Change(dec("50"), s), "short")
}
