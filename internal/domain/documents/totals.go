package documents

import (
	"github.com/shopspring/decimal"

	"facturador/internal/core/types"
)

var hundred = decimal.NewFromInt(100)

// Totals is the monetary summary of a document's lines.
type Totals struct {
	// TaxableBase is the sum of per-line subtotals.
	TaxableBase types.Money `json:"taxableBase"`

	// TaxTotal is the sum of per-line tax amounts.
	TaxTotal types.Money `json:"taxTotal"`

	// GrandTotal is TaxableBase + TaxTotal, always exactly.
	GrandTotal types.Money `json:"grandTotal"`
}

// ComputeTotals computes the monetary summary of an ordered list of lines.
// Pure function; input validation (non-negative amounts, tax rate range) is
// the caller's precondition, enforced by SanitizeLines.
//
// The taxable base sums the rounded per-line subtotals so that the persisted
// base equals the sum of persisted line subtotals to the minor unit.
func ComputeTotals(lines []Line) Totals {
	base := decimal.Zero
	tax := decimal.Zero

	for _, l := range lines {
		subtotal := types.RoundCurrency(l.Quantity.Mul(l.UnitPrice))
		base = base.Add(subtotal)
		tax = tax.Add(subtotal.Mul(l.TaxRate).Div(hundred))
	}

	base = types.RoundCurrency(base)
	tax = types.RoundCurrency(tax)

	return Totals{
		TaxableBase: base,
		TaxTotal:    tax,
		GrandTotal:  base.Add(tax),
	}
}
