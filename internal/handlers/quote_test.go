package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ldelattre/microgest/internal/events"
	"github.com/ldelattre/microgest/internal/models"
	"github.com/ldelattre/microgest/internal/services"
)

func TestQuoteCreateFromCatalog(t *testing.T) {
	db := setupHandlerTestDB(t)
	user := seedUser(t, db, "quote@test")
	client := seedClient(t, db, user.ID)
	item := models.CatalogItem{UserID: user.ID, Name: "Jour de développement", UnitPrice: 450, TaxRate: 0.2, UnitLabel: "jour"}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("catalog: %v", err)
	}
	h := NewQuoteHandler(db, services.NewDocumentService(db), events.NewHub())

	body := `{"client_id":` + itoa(client.ID) + `,"items":[{"catalog_item_id":` + itoa(item.ID) + `,"quantity":3}]}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/quotes", strings.NewReader(body)), user.ID)
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d body=%s", w.Code, w.Body.String())
	}
	var q models.Quote
	if err := json.Unmarshal(w.Body.Bytes(), &q); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if q.Status != models.QuoteStatusDraft {
		t.Fatalf("status: got %q want draft", q.Status)
	}
	if !strings.HasPrefix(q.Number, "DEV-") {
		t.Fatalf("number: %q", q.Number)
	}
	if len(q.Items) != 1 || q.Items[0].Description != "Jour de développement" || q.Items[0].UnitPrice != 450 {
		t.Fatalf("catalog fields not copied: %#v", q.Items)
	}
	if q.Total != 1350 {
		t.Fatalf("total: got %v want 1350", q.Total)
	}
}

func TestQuoteCreateValidation(t *testing.T) {
	db := setupHandlerTestDB(t)
	user := seedUser(t, db, "quote@test")
	client := seedClient(t, db, user.ID)
	h := NewQuoteHandler(db, services.NewDocumentService(db), events.NewHub())

	cases := []struct {
		name string
		body string
	}{
		{"missing client", `{"items":[]}`},
		{"unknown status", `{"client_id":` + itoa(client.ID) + `,"status":"archived"}`},
		{"zero quantity", `{"client_id":` + itoa(client.ID) + `,"items":[{"description":"x","quantity":0,"unit_price":10}]}`},
		{"unknown catalog item", `{"client_id":` + itoa(client.ID) + `,"items":[{"catalog_item_id":999,"quantity":1}]}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := asUser(httptest.NewRequest(http.MethodPost, "/api/quotes", strings.NewReader(c.body)), user.ID)
			w := httptest.NewRecorder()
			h.Create(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("got %d body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestQuoteConvertFlow(t *testing.T) {
	db := setupHandlerTestDB(t)
	user := seedUser(t, db, "quote@test")
	client := seedClient(t, db, user.ID)
	docSvc := services.NewDocumentService(db)
	h := NewQuoteHandler(db, docSvc, events.NewHub())

	q := models.Quote{ClientID: client.ID, Status: models.QuoteStatusDraft,
		Items: []models.LineItem{{Description: "refonte site", Quantity: 1, UnitPrice: 3200}}}
	if err := docSvc.CreateQuote(user.ID, &q, ""); err != nil {
		t.Fatalf("seed quote: %v", err)
	}

	convert := func() *httptest.ResponseRecorder {
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/quotes/1/convert", nil), user.ID)
		req.SetPathValue("id", itoa(q.ID))
		w := httptest.NewRecorder()
		h.Convert(w, req)
		return w
	}

	// only accepted quotes convert
	if w := convert(); w.Code != http.StatusBadRequest {
		t.Fatalf("draft convert: got %d body=%s", w.Code, w.Body.String())
	}
	if err := db.Model(&models.Quote{}).Where("id = ?", q.ID).Update("status", models.QuoteStatusAccepted).Error; err != nil {
		t.Fatalf("accept: %v", err)
	}
	w := convert()
	if w.Code != http.StatusCreated {
		t.Fatalf("convert: got %d body=%s", w.Code, w.Body.String())
	}
	var inv models.Invoice
	if err := json.Unmarshal(w.Body.Bytes(), &inv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if inv.QuoteID == nil || *inv.QuoteID != q.ID {
		t.Fatalf("origin quote missing: %#v", inv.QuoteID)
	}
	if !strings.HasPrefix(inv.Number, "INV-") {
		t.Fatalf("number: %q", inv.Number)
	}
	if inv.Total != 3200 || inv.Status != models.InvoiceStatusDraft {
		t.Fatalf("invoice: total=%v status=%q", inv.Total, inv.Status)
	}
}

func TestQuoteUpdateReplacesItems(t *testing.T) {
	db := setupHandlerTestDB(t)
	user := seedUser(t, db, "quote@test")
	client := seedClient(t, db, user.ID)
	docSvc := services.NewDocumentService(db)
	h := NewQuoteHandler(db, docSvc, events.NewHub())

	q := models.Quote{ClientID: client.ID, Status: models.QuoteStatusDraft,
		Items: []models.LineItem{{Description: "a", Quantity: 1, UnitPrice: 100}}}
	if err := docSvc.CreateQuote(user.ID, &q, ""); err != nil {
		t.Fatalf("seed: %v", err)
	}

	body := `{"client_id":` + itoa(client.ID) + `,"status":"sent","items":[{"description":"b","quantity":2,"unit_price":75}]}`
	req := asUser(httptest.NewRequest(http.MethodPut, "/api/quotes/1", strings.NewReader(body)), user.ID)
	req.SetPathValue("id", itoa(q.ID))
	w := httptest.NewRecorder()
	h.Update(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update: got %d body=%s", w.Code, w.Body.String())
	}
	var updated models.Quote
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Status != models.QuoteStatusSent || updated.Total != 150 {
		t.Fatalf("updated quote: status=%q total=%v", updated.Status, updated.Total)
	}
	var count int64
	db.Model(&models.LineItem{}).Where("quote_id = ?", q.ID).Count(&count)
	if count != 1 {
		t.Fatalf("line items: got %d want 1", count)
	}
}
