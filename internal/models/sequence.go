package models

import "time"

// Number sequence kinds
const (
	SequenceKindInvoice = "invoice"
	SequenceKindQuote   = "quote"
)

// NumberSequence is the per-owner atomic counter backing document numbering.
// The row is locked and incremented inside the transaction that creates the
// document, so two sessions can never be handed the same number.
type NumberSequence struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_seq_owner_kind,priority:1"`
	Kind      string `gorm:"not null;uniqueIndex:idx_seq_owner_kind,priority:2"`
	Next      int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IdempotencyRecord de-duplicates create requests. A create carrying an
// Idempotency-Key header that matches an existing record returns the entity
// created the first time instead of inserting a duplicate.
type IdempotencyRecord struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_idem_owner_key,priority:1"`
	Key       string `gorm:"size:80;not null;uniqueIndex:idx_idem_owner_key,priority:2"`
	Entity    string `gorm:"not null"` // ex: "invoice", "client"
	EntityID  uint   `gorm:"not null"`
	CreatedAt time.Time
}
