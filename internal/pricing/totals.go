package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/campusbooks/marketplace/internal/models"
)

// TaxRate is the flat sales tax applied to every order.
var TaxRate = decimal.NewFromFloat(0.07)

type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	Tax        float64 `json:"tax"`
	GrandTotal float64 `json:"grandTotal"`
}

// Calculate sums the cart lines and applies tax, rounding money values
// to cents. An empty cart yields all zeros.
func Calculate(items []models.CartItem) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(line)
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(TaxRate).Round(2)
	grand := subtotal.Add(tax).Round(2)

	return Totals{
		Subtotal:   subtotal.InexactFloat64(),
		Tax:        tax.InexactFloat64(),
		GrandTotal: grand.InexactFloat64(),
	}
}

// Count returns the number of units across all cart lines.
func Count(items []models.CartItem) uint {
	var n uint
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
