// Package pricing turns a validated selection plus quantity into money.
// All arithmetic is fixed-point decimal; rounding to two places happens
// only at the reported boundary.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/vmelnikov/food_ordering/internal/customization"
	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/models"
)

// stepTolerance absorbs representation noise in fractional quantities
// coming off the wire. An accepted imprecision, pinned by tests.
var stepTolerance = decimal.NewFromFloat(0.001)

// TaxLine is one tax's contribution to a single line. Inclusive taxes are
// recorded with a zero amount: they are already inside the price. Amount
// stays unrounded so per-tax sums across lines can round once at the end.
type TaxLine struct {
	TaxID       string          `json:"taxId"`
	Name        string          `json:"name"`
	Type        models.TaxType  `json:"type"`
	Value       decimal.Decimal `json:"value"`
	IsInclusive bool            `json:"isInclusive"`
	Amount      decimal.Decimal `json:"amount"`
}

type Breakdown struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"taxAmount"`
	Total     decimal.Decimal `json:"total"`
	TaxLines  []TaxLine       `json:"taxLines"`
}

// ValidateQuantity enforces the item's min/max/step rule before any
// pricing happens.
func ValidateQuantity(item *models.MenuItem, qty decimal.Decimal) error {
	if qty.LessThan(item.MinQuantity) {
		return errs.Validationf("QUANTITY_BELOW_MIN", "quantity",
			"minimum quantity for '%s' is %s %s", item.Name, item.MinQuantity, item.Unit)
	}
	if item.MaxQuantity != nil && qty.GreaterThan(*item.MaxQuantity) {
		return errs.Validationf("QUANTITY_ABOVE_MAX", "quantity",
			"maximum quantity for '%s' is %s %s", item.Name, item.MaxQuantity, item.Unit)
	}
	if item.StepQuantity.IsPositive() {
		// distance to the nearest step boundary, absorbing noise on
		// either side of it
		rem := qty.Sub(item.MinQuantity).Mod(item.StepQuantity).Abs()
		if rem.GreaterThan(stepTolerance) && item.StepQuantity.Sub(rem).GreaterThan(stepTolerance) {
			return errs.Validationf("QUANTITY_STEP", "quantity",
				"quantity must be in increments of %s %s", item.StepQuantity, item.Unit)
		}
	}
	return nil
}

// ValidateStock is advisory at cart time: stock can move between check and
// checkout. The order transaction is the only authoritative check.
func ValidateStock(item *models.MenuItem, qty decimal.Decimal) error {
	if item.AvailableQuantity != nil && qty.GreaterThan(*item.AvailableQuantity) {
		return errs.Conflictf("INSUFFICIENT_STOCK",
			"only %s %s(s) available for '%s'", item.AvailableQuantity, item.Unit, item.Name)
	}
	return nil
}

// Price computes subtotal, tax and total for one line:
//
//	subtotal  = (basePrice + sum of selection prices) * quantity
//	taxAmount = sum over exclusive taxes (percentage of subtotal, or fixed)
//	total     = subtotal + taxAmount
//
// Amounts accumulate exactly and round to two places on report.
func Price(basePrice decimal.Decimal, selection []customization.Selected, qty decimal.Decimal, taxes []models.MenuItemTax) Breakdown {
	unit := basePrice
	for _, sel := range selection {
		unit = unit.Add(sel.Price)
	}
	subtotal := unit.Mul(qty)

	taxAmount := decimal.Zero
	lines := make([]TaxLine, 0, len(taxes))
	for _, mt := range taxes {
		tax := mt.Tax
		line := TaxLine{
			TaxID:       tax.ID.String(),
			Name:        tax.Name,
			Type:        tax.Type,
			Value:       tax.Value,
			IsInclusive: tax.IsInclusive,
			Amount:      decimal.Zero,
		}
		if !tax.IsInclusive {
			switch tax.Type {
			case models.TaxPercentage:
				line.Amount = subtotal.Mul(tax.Value).Div(decimal.NewFromInt(100))
			case models.TaxFixed:
				line.Amount = tax.Value
			}
			taxAmount = taxAmount.Add(line.Amount)
		}
		lines = append(lines, line)
	}

	roundedSubtotal := subtotal.Round(2)
	roundedTax := taxAmount.Round(2)

	return Breakdown{
		Subtotal:  roundedSubtotal,
		TaxAmount: roundedTax,
		Total:     roundedSubtotal.Add(roundedTax),
		TaxLines:  lines,
	}
}
