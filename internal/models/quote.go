package models

import "time"

// Quote / devis statuses
const (
	QuoteStatusDraft    = "draft"
	QuoteStatusSent     = "sent"
	QuoteStatusAccepted = "accepted"
	QuoteStatusRefused  = "refused"
	QuoteStatusExpired  = "expired"
)

// Quote is a devis. Subtotal/TaxAmount/Total are recomputed from Items on
// every write, never trusted from the request.
type Quote struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	ClientID     uint       `gorm:"not null;index" json:"client_id"`
	Client       Client     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Number       string     `gorm:"not null;index" json:"number"`
	Status       string     `gorm:"not null;default:'draft'" json:"status"`
	IssueDate    *time.Time `json:"issue_date"`
	ValidUntil   *time.Time `json:"valid_until"` // date de validité
	Subtotal     float64    `json:"subtotal"`
	TaxAmount    float64    `json:"tax_amount"`
	Total        float64    `json:"total"`
	Notes        string     `json:"notes"`
	Terms        string     `json:"terms"`
	Items        []LineItem `gorm:"foreignKey:QuoteID" json:"items,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (q Quote) GetUserID() uint { return q.UserID }

func ValidQuoteStatus(s string) bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRefused, QuoteStatusExpired:
		return true
	}
	return false
}
