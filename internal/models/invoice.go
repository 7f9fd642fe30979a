package models

import "time"

// Invoice / facture statuses
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

// Invoice is a facture, optionally originating from an accepted quote.
type Invoice struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	ClientID     uint       `gorm:"not null;index" json:"client_id"`
	Client       Client     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	QuoteID      *uint      `gorm:"index" json:"quote_id"` // devis d'origine, optionnel
	Number       string     `gorm:"not null;index" json:"number"`
	Status       string     `gorm:"not null;default:'draft'" json:"status"`
	IssueDate    *time.Time `json:"issue_date"`
	DueDate      *time.Time `json:"due_date"`
	PaidDate     *time.Time `json:"paid_date"`
	Subtotal     float64    `json:"subtotal"`
	TaxAmount    float64    `json:"tax_amount"`
	Total        float64    `json:"total"`
	Notes        string     `json:"notes"`
	PaymentTerms string     `json:"payment_terms"`
	Items        []LineItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (i Invoice) GetUserID() uint { return i.UserID }

func ValidInvoiceStatus(s string) bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}
