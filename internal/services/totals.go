package services

import "github.com/ldelattre/microgest/internal/models"

// Totals of a quote or invoice derived from its line items.
type Totals struct {
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// ComputeTotals recomputes each item's Amount (quantity × unit price) in
// place and returns the document totals. The per-line TaxRate is stored for
// document display but contributes nothing to the totals: the product
// displays totals with an effective 0% rate (micro-entrepreneurs are
// typically en franchise de TVA), so Total == Subtotal.
func ComputeTotals(items []models.LineItem) Totals {
	var t Totals
	for i := range items {
		items[i].Amount = items[i].Quantity * items[i].UnitPrice
		t.Subtotal += items[i].Amount
	}
	t.TaxAmount = 0
	t.Total = t.Subtotal
	return t
}
