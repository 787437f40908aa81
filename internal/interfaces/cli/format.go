package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pharmapos/backend/internal/application/checkout"
	"github.com/pharmapos/backend/internal/domain/cart"
	"github.com/pharmapos/backend/internal/domain/finance"
	"github.com/pharmapos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders amounts and tables for the terminal
type Formatter struct {
	printer  *message.Printer
	currency valueobject.Currency
}

// NewFormatter creates a formatter for the given display language
func NewFormatter(tag language.Tag, currency valueobject.Currency) *Formatter {
	return &Formatter{
		printer:  message.NewPrinter(tag),
		currency: currency,
	}
}

// Money formats an amount with two decimals and locale digit grouping
func (f *Formatter) Money(d decimal.Decimal) string {
	v, _ := valueobject.Round2(d).Float64()
	return f.printer.Sprintf("%.2f", v)
}

// Percent formats a percentage without trailing zeros
func (f *Formatter) Percent(d decimal.Decimal) string {
	return d.String() + "%"
}

// Count formats an integer with locale digit grouping
func (f *Formatter) Count(n int64) string {
	return f.printer.Sprintf("%d", n)
}

// SearchResults writes numbered search results
func (f *Formatter) SearchResults(w io.Writer, results []checkout.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no matches")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tMEDICINE\tGENERIC\tUNIT\tAVAILABLE\tBATCHES\t")
	for i, r := range results {
		avail := f.Count(r.Available)
		if r.OutOfStock {
			avail = "out of stock"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t\n",
			i+1, r.Medicine.Name, r.Medicine.GenericName, r.Medicine.Unit, avail, len(r.Medicine.Batches))
	}
	_ = tw.Flush()
}

// Lines writes the cart lines, numbered in display order
func (f *Formatter) Lines(w io.Writer, lines []cart.Line) {
	if len(lines) == 0 {
		fmt.Fprintln(w, "cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tMEDICINE\tBATCH\tQTY\tRATE\tDISC\tVAT\tAMOUNT\t")
	for i, l := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			i+1, l.MedicineName, l.BatchNumber, f.Count(l.Quantity),
			f.Money(l.Rate), f.Percent(l.DiscountPct), f.Percent(l.VATPct), f.Money(l.Amount))
	}
	_ = tw.Flush()
}

// Summary writes the financial summary
func (f *Formatter) Summary(w io.Writer, s finance.Summary, method finance.PaymentMethod) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	row := func(label string, d decimal.Decimal, note string) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", label, f.Money(d), note)
	}
	row("Subtotal", s.Subtotal, "")
	row("Line discounts", s.LineDiscountTotal, "")
	row("Extra discount", s.ExtraDiscount, capNote(s.ExtraDiscountCapped))
	row("VAT", s.VATTotal, "")
	row("Rounding", s.RoundingAdjustment, "")
	row("Net payable", s.NetPayable, string(f.currency))
	row("Paid", s.Paid, capNote(s.PaidCapped)+strings.ToLower(method.String()))
	row("Due", s.Due, "")
	_ = tw.Flush()
}

func capNote(capped bool) string {
	if capped {
		return "(capped) "
	}
	return ""
}
