package models

import "time"

// CatalogItem is a reusable sellable item. Its fields are copied into a
// LineItem when added to a quote or invoice; later catalog edits do not
// touch existing documents.
type CatalogItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	UserID      uint    `gorm:"not null;index" json:"user_id"`
	Name        string  `gorm:"not null;index" json:"name"`
	Description string  `json:"description"`
	UnitPrice   float64 `gorm:"not null" json:"unit_price"`
	TaxRate     float64 `json:"tax_rate"`
	UnitLabel   string  `json:"unit_label"` // ex: heure, jour, pièce
	Category    string  `gorm:"index" json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c CatalogItem) GetUserID() uint { return c.UserID }
