package models

import "time"

// Expense is a business expense (dépense professionnelle).
type Expense struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Description string    `gorm:"not null" json:"description"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Category    string    `gorm:"index" json:"category"`
	Date        time.Time `json:"date"`
	TaxAmount   float64   `json:"tax_amount"` // TVA récupérable, optionnel
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (e Expense) GetUserID() uint { return e.UserID }
