package documents

import (
	"strings"

	"facturador/internal/core/apperror"
	"facturador/internal/core/id"
	"facturador/internal/core/types"
)

// Line is a single position of a document. Lines are owned exclusively by
// their document and are replaced wholesale (delete-all, recreate) on every
// draft edit, never mutated in place.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`

	// LineNo is the stable 1-based ordering position within the document.
	LineNo int `db:"line_no" json:"lineNo"`

	Description string      `db:"description" json:"description"`
	Quantity    types.Money `db:"quantity" json:"quantity"`
	UnitPrice   types.Money `db:"unit_price" json:"unitPrice"`

	// TaxRate is a percentage in [0, 100].
	TaxRate types.Money `db:"tax_rate" json:"taxRate"`

	// Subtotal is quantity * unit price, rounded to the currency's minor
	// unit. Persisted per line for display and auditing; always equals the
	// corresponding term of the document's taxable base.
	Subtotal types.Money `db:"subtotal" json:"subtotal"`
}

// SanitizeLines validates and normalizes raw line input.
//
// Lines with a blank description, zero quantity or zero price are dropped
// (half-filled form rows). Negative quantity/price or a tax rate outside
// [0, 100] is a validation error. Surviving lines get fresh ids, 1-based
// positions and a computed subtotal. Fails when no valid line survives.
func SanitizeLines(lines []Line) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	for i, l := range lines {
		if l.Quantity.IsNegative() || l.UnitPrice.IsNegative() {
			return nil, apperror.NewValidation("quantity and unit price must not be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !types.ValidTaxRate(l.TaxRate) {
			return nil, apperror.NewValidation("tax rate must be between 0 and 100").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}

		desc := strings.TrimSpace(l.Description)
		if desc == "" || !l.Quantity.IsPositive() || !l.UnitPrice.IsPositive() {
			continue
		}

		l.Description = desc
		l.LineID = id.New()
		l.LineNo = len(out) + 1
		l.Subtotal = types.RoundCurrency(l.Quantity.Mul(l.UnitPrice))
		out = append(out, l)
	}

	if len(out) == 0 {
		return nil, apperror.NewValidation("at least one valid line is required").
			WithDetail("field", "lines")
	}

	return out, nil
}

// CopyLines returns a deep copy of lines with fresh line ids, preserving
// order, as the conversion path needs when cloning a quote's lines into a
// new invoice.
func CopyLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		l.LineID = id.New()
		l.LineNo = i + 1
		out[i] = l
	}
	return out
}
