package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ldelattre/microgest/internal/apperr"
	"github.com/ldelattre/microgest/internal/models"
)

// DocumentService persists quotes and invoices together with their line
// items. Totals are always recomputed server-side and the document number
// comes from the per-owner counter; neither is trusted from the request.
type DocumentService struct{ DB *gorm.DB }

func NewDocumentService(db *gorm.DB) *DocumentService { return &DocumentService{DB: db} }

// checkClient verifies the referenced client exists and belongs to userID.
func (s *DocumentService) checkClient(tx *gorm.DB, userID, clientID uint) error {
	var client models.Client
	if err := tx.First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("client", clientID)
		}
		return err
	}
	if client.UserID != userID {
		return apperr.Permission("client", clientID)
	}
	return nil
}

// CreateQuote inserts the quote and its items in one transaction, assigning
// the next quote number.
func (s *DocumentService) CreateQuote(userID uint, q *models.Quote, idemKey string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.checkClient(tx, userID, q.ClientID); err != nil {
			return err
		}
		number, err := AllocateNumber(tx, userID, models.SequenceKindQuote)
		if err != nil {
			return err
		}
		q.UserID = userID
		q.Number = number
		items := q.Items
		q.Items = nil
		totals := ComputeTotals(items)
		q.Subtotal, q.TaxAmount, q.Total = totals.Subtotal, totals.TaxAmount, totals.Total
		if err := tx.Create(q).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].QuoteID = &q.ID
			items[i].InvoiceID = nil
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		q.Items = items
		return RecordIdempotent(tx, userID, idemKey, "quote", q.ID)
	})
}

// UpdateQuote replaces the quote's fields and line items.
func (s *DocumentService) UpdateQuote(userID uint, q *models.Quote, items []models.LineItem) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.checkClient(tx, userID, q.ClientID); err != nil {
			return err
		}
		totals := ComputeTotals(items)
		q.Subtotal, q.TaxAmount, q.Total = totals.Subtotal, totals.TaxAmount, totals.Total
		if err := tx.Where("quote_id = ?", q.ID).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = 0
			items[i].QuoteID = &q.ID
			items[i].InvoiceID = nil
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		q.Items = nil
		if err := tx.Save(q).Error; err != nil {
			return err
		}
		q.Items = items
		return nil
	})
}

// DeleteQuote removes the quote with its items in one transaction.
func (s *DocumentService) DeleteQuote(quoteID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", quoteID).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Quote{}, quoteID).Error
	})
}

// CreateInvoice inserts the invoice and its items in one transaction,
// assigning the next invoice number.
func (s *DocumentService) CreateInvoice(userID uint, inv *models.Invoice, idemKey string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.checkClient(tx, userID, inv.ClientID); err != nil {
			return err
		}
		number, err := AllocateNumber(tx, userID, models.SequenceKindInvoice)
		if err != nil {
			return err
		}
		inv.UserID = userID
		inv.Number = number
		items := inv.Items
		inv.Items = nil
		totals := ComputeTotals(items)
		inv.Subtotal, inv.TaxAmount, inv.Total = totals.Subtotal, totals.TaxAmount, totals.Total
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = &inv.ID
			items[i].QuoteID = nil
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		inv.Items = items
		return RecordIdempotent(tx, userID, idemKey, "invoice", inv.ID)
	})
}

// UpdateInvoice replaces the invoice's fields and line items.
func (s *DocumentService) UpdateInvoice(userID uint, inv *models.Invoice, items []models.LineItem) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.checkClient(tx, userID, inv.ClientID); err != nil {
			return err
		}
		totals := ComputeTotals(items)
		inv.Subtotal, inv.TaxAmount, inv.Total = totals.Subtotal, totals.TaxAmount, totals.Total
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = 0
			items[i].InvoiceID = &inv.ID
			items[i].QuoteID = nil
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		inv.Items = nil
		if err := tx.Save(inv).Error; err != nil {
			return err
		}
		inv.Items = items
		return nil
	})
}

// DeleteInvoice removes the invoice with its items in one transaction.
func (s *DocumentService) DeleteInvoice(invoiceID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoiceID).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Invoice{}, invoiceID).Error
	})
}

// ConvertQuote creates a draft invoice from an accepted quote, copying its
// line items and payment context. Non-accepted quotes are rejected.
func (s *DocumentService) ConvertQuote(userID, quoteID uint, now time.Time) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var q models.Quote
		if err := tx.Preload("Items").First(&q, quoteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("quote", quoteID)
			}
			return err
		}
		if q.UserID != userID {
			return apperr.Permission("quote", quoteID)
		}
		if q.Status != models.QuoteStatusAccepted {
			return apperr.Validation(map[string]string{"status": "quote_not_accepted"})
		}
		number, err := AllocateNumber(tx, userID, models.SequenceKindInvoice)
		if err != nil {
			return err
		}
		issue := now
		due := now.AddDate(0, 1, 0)
		inv = models.Invoice{
			UserID:    userID,
			ClientID:  q.ClientID,
			QuoteID:   &q.ID,
			Number:    number,
			Status:    models.InvoiceStatusDraft,
			IssueDate: &issue,
			DueDate:   &due,
			Notes:     q.Notes,
		}
		items := make([]models.LineItem, len(q.Items))
		for i, it := range q.Items {
			items[i] = models.LineItem{
				Description: it.Description,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				TaxRate:     it.TaxRate,
			}
		}
		totals := ComputeTotals(items)
		inv.Subtotal, inv.TaxAmount, inv.Total = totals.Subtotal, totals.TaxAmount, totals.Total
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = &inv.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		inv.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
