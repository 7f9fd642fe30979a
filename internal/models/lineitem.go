package models

import "time"

// LineItem is one priced row of a quote or an invoice. Exactly one of
// QuoteID/InvoiceID is set. TaxRate is informational only: it is stored for
// document display but excluded from totals (see services.ComputeTotals).
type LineItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	QuoteID     *uint   `gorm:"index" json:"quote_id"`
	InvoiceID   *uint   `gorm:"index" json:"invoice_id"`
	Description string  `gorm:"not null" json:"description"`
	Quantity    float64 `gorm:"not null" json:"quantity"`
	UnitPrice   float64 `gorm:"not null" json:"unit_price"`
	TaxRate     float64 `json:"tax_rate"` // e.g. 0.20 for 20%
	Amount      float64 `json:"amount"`   // quantity × unit price, recomputed on write
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
