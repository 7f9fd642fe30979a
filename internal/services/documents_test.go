package services

import (
	"testing"
	"time"

	"github.com/ldelattre/microgest/internal/apperr"
	"github.com/ldelattre/microgest/internal/models"
)

func TestCreateInvoiceComputesTotalsAndNumber(t *testing.T) {
	db := setupServiceTestDB(t)
	user, client := seedOwnerAndClient(t, db)
	svc := NewDocumentService(db)

	inv := models.Invoice{
		ClientID: client.ID,
		Status:   models.InvoiceStatusDraft,
		Items: []models.LineItem{
			{Description: "dev", Quantity: 2, UnitPrice: 50, TaxRate: 0.2},
			{Description: "conseil", Quantity: 1, UnitPrice: 30},
		},
	}
	if err := svc.CreateInvoice(user.ID, &inv, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.ID == 0 || inv.Number == "" {
		t.Fatalf("missing id/number: %#v", inv)
	}
	if inv.Subtotal != 130 || inv.TaxAmount != 0 || inv.Total != 130 {
		t.Fatalf("totals: %v/%v/%v", inv.Subtotal, inv.TaxAmount, inv.Total)
	}
	var count int64
	db.Model(&models.LineItem{}).Where("invoice_id = ?", inv.ID).Count(&count)
	if count != 2 {
		t.Fatalf("line items: got %d want 2", count)
	}
}

func TestCreateInvoiceRejectsForeignClient(t *testing.T) {
	db := setupServiceTestDB(t)
	_, client := seedOwnerAndClient(t, db)
	other := models.User{Email: "other@test", Password: "x"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("other user: %v", err)
	}
	svc := NewDocumentService(db)

	inv := models.Invoice{ClientID: client.ID, Status: models.InvoiceStatusDraft}
	if err := svc.CreateInvoice(other.ID, &inv, ""); err == nil {
		t.Fatal("expected permission error")
	} else if _, ok := apperr.IsPermission(err); !ok {
		t.Fatalf("expected permission error, got %v", err)
	}

	missing := models.Invoice{ClientID: 9999, Status: models.InvoiceStatusDraft}
	if err := svc.CreateInvoice(other.ID, &missing, ""); err == nil {
		t.Fatal("expected not found")
	} else if _, ok := apperr.IsNotFound(err); !ok {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCreateQuoteIdempotency(t *testing.T) {
	db := setupServiceTestDB(t)
	user, client := seedOwnerAndClient(t, db)
	svc := NewDocumentService(db)

	q := models.Quote{ClientID: client.ID, Status: models.QuoteStatusDraft,
		Items: []models.LineItem{{Description: "forfait", Quantity: 1, UnitPrice: 500}}}
	if err := svc.CreateQuote(user.ID, &q, "retry-abc"); err != nil {
		t.Fatalf("create: %v", err)
	}
	id, found, err := FindIdempotent(db, user.ID, "retry-abc", "quote")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !found || id != q.ID {
		t.Fatalf("idempotency lookup: found=%v id=%d want id=%d", found, id, q.ID)
	}
	// other owner's key space is separate
	if _, found, _ := FindIdempotent(db, user.ID+1, "retry-abc", "quote"); found {
		t.Fatal("key should be scoped per owner")
	}
	// empty keys are never recorded
	if _, found, _ := FindIdempotent(db, user.ID, "", "quote"); found {
		t.Fatal("empty key should never match")
	}
}

func TestUpdateQuoteReplacesItems(t *testing.T) {
	db := setupServiceTestDB(t)
	user, client := seedOwnerAndClient(t, db)
	svc := NewDocumentService(db)

	q := models.Quote{ClientID: client.ID, Status: models.QuoteStatusDraft,
		Items: []models.LineItem{{Description: "a", Quantity: 1, UnitPrice: 10}, {Description: "b", Quantity: 1, UnitPrice: 20}}}
	if err := svc.CreateQuote(user.ID, &q, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.UpdateQuote(user.ID, &q, []models.LineItem{{Description: "c", Quantity: 3, UnitPrice: 100}}); err != nil {
		t.Fatalf("update: %v", err)
	}
	var items []models.LineItem
	if err := db.Where("quote_id = ?", q.ID).Find(&items).Error; err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 || items[0].Description != "c" {
		t.Fatalf("items not replaced: %#v", items)
	}
	if q.Total != 300 {
		t.Fatalf("total: got %v want 300", q.Total)
	}
}

func TestDeleteInvoiceRemovesItems(t *testing.T) {
	db := setupServiceTestDB(t)
	user, client := seedOwnerAndClient(t, db)
	svc := NewDocumentService(db)

	inv := models.Invoice{ClientID: client.ID, Status: models.InvoiceStatusDraft,
		Items: []models.LineItem{{Description: "x", Quantity: 1, UnitPrice: 10}}}
	if err := svc.CreateInvoice(user.ID, &inv, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteInvoice(inv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var count int64
	db.Model(&models.LineItem{}).Where("invoice_id = ?", inv.ID).Count(&count)
	if count != 0 {
		t.Fatalf("orphan line items: %d", count)
	}
}

func TestConvertQuote(t *testing.T) {
	db := setupServiceTestDB(t)
	user, client := seedOwnerAndClient(t, db)
	svc := NewDocumentService(db)

	q := models.Quote{ClientID: client.ID, Status: models.QuoteStatusDraft, Notes: "acompte 30%",
		Items: []models.LineItem{{Description: "site vitrine", Quantity: 1, UnitPrice: 2400, TaxRate: 0.2}}}
	if err := svc.CreateQuote(user.ID, &q, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)
	if _, err := svc.ConvertQuote(user.ID, q.ID, now); err == nil {
		t.Fatal("draft quote should not convert")
	} else if _, ok := apperr.IsValidation(err); !ok {
		t.Fatalf("expected validation error, got %v", err)
	}

	q.Status = models.QuoteStatusAccepted
	if err := db.Save(&q).Error; err != nil {
		t.Fatalf("save: %v", err)
	}
	inv, err := svc.ConvertQuote(user.ID, q.ID, now)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if inv.Status != models.InvoiceStatusDraft {
		t.Fatalf("status: got %q want draft", inv.Status)
	}
	if inv.QuoteID == nil || *inv.QuoteID != q.ID {
		t.Fatalf("origin quote not linked: %#v", inv.QuoteID)
	}
	if inv.Total != 2400 {
		t.Fatalf("total: got %v want 2400", inv.Total)
	}
	if inv.Notes != "acompte 30%" {
		t.Fatalf("notes not carried over: %q", inv.Notes)
	}
	if inv.DueDate == nil || !inv.DueDate.Equal(now.AddDate(0, 1, 0)) {
		t.Fatalf("due date: %v", inv.DueDate)
	}
	if len(inv.Items) != 1 || inv.Items[0].Description != "site vitrine" {
		t.Fatalf("items not copied: %#v", inv.Items)
	}

	if _, err := svc.ConvertQuote(user.ID, 9999, now); err == nil {
		t.Fatal("expected not found")
	} else if _, ok := apperr.IsNotFound(err); !ok {
		t.Fatalf("expected not found error, got %v", err)
	}
}
