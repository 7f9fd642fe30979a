package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ldelattre/microgest/internal/apperr"
	"github.com/ldelattre/microgest/internal/auth"
	"github.com/ldelattre/microgest/internal/events"
	"github.com/ldelattre/microgest/internal/gate"
	"github.com/ldelattre/microgest/internal/httpx"
	"github.com/ldelattre/microgest/internal/models"
	"github.com/ldelattre/microgest/internal/services"
	"github.com/ldelattre/microgest/internal/validation"
)

// itemRequest is one line-item row of a quote/invoice payload. When
// catalog_item_id is set, the catalog entry is copied into the row; explicit
// fields override the copied ones.
type itemRequest struct {
	CatalogItemID uint    `json:"catalog_item_id"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	TaxRate       float64 `json:"tax_rate"`
}

type quoteRequest struct {
	ClientID   uint          `json:"client_id"`
	Status     string        `json:"status"`
	IssueDate  *time.Time    `json:"issue_date"`
	ValidUntil *time.Time    `json:"valid_until"`
	Notes      string        `json:"notes"`
	Terms      string        `json:"terms"`
	Items      []itemRequest `json:"items"`
}

// resolveItems materializes request rows into line items, copying catalog
// entries where referenced. Quantities must be positive; unit price may be
// zero only when copied from the catalog.
func resolveItems(db *gorm.DB, uid uint, rows []itemRequest) ([]models.LineItem, error) {
	items := make([]models.LineItem, 0, len(rows))
	v := validation.Violations{}
	for _, row := range rows {
		it := models.LineItem{
			Description: strings.TrimSpace(row.Description),
			Quantity:    row.Quantity,
			UnitPrice:   row.UnitPrice,
			TaxRate:     row.TaxRate,
		}
		if row.CatalogItemID != 0 {
			var ci models.CatalogItem
			if err := db.First(&ci, row.CatalogItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, apperr.Validation(map[string]string{"items": "unknown_catalog_item"})
				}
				return nil, err
			}
			if ci.UserID != uid {
				return nil, apperr.Permission("catalog_item", ci.ID)
			}
			if it.Description == "" {
				it.Description = ci.Name
			}
			if it.UnitPrice == 0 {
				it.UnitPrice = ci.UnitPrice
			}
			if it.TaxRate == 0 {
				it.TaxRate = ci.TaxRate
			}
		}
		if it.Description == "" {
			v["items"] = "description_required"
		}
		if it.Quantity <= 0 {
			v["items"] = "invalid_quantity"
		}
		if it.UnitPrice < 0 {
			v["items"] = "invalid_unit_price"
		}
		items = append(items, it)
	}
	if !v.Empty() {
		return nil, apperr.Validation(v)
	}
	return items, nil
}

type QuoteHandler struct {
	DB  *gorm.DB
	Svc *services.DocumentService
	Hub *events.Hub
}

func NewQuoteHandler(db *gorm.DB, svc *services.DocumentService, hub *events.Hub) *QuoteHandler {
	return &QuoteHandler{DB: db, Svc: svc, Hub: hub}
}

// List: GET /api/quotes
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	limit, offset := pagination(r)
	dbq := h.DB.Where("user_id = ?", uid)
	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" && models.ValidQuoteStatus(s) {
		dbq = dbq.Where("status = ?", s)
	}
	var total int64
	dbq.Model(&models.Quote{}).Count(&total)
	var quotes []models.Quote
	if err := dbq.Preload("Items").Order("id desc").Limit(limit).Offset(offset).Find(&quotes).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": quotes, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /api/quotes
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	key := idemKey(r)
	if prior, ok, err := services.FindIdempotent(h.DB, uid, key, "quote"); err != nil {
		httpx.Error(w, err)
		return
	} else if ok {
		var existing models.Quote
		if err := h.DB.Preload("Items").First(&existing, prior).Error; err == nil {
			httpx.JSON(w, http.StatusOK, existing)
			return
		}
	}
	var req quoteRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.Status == "" {
		req.Status = models.QuoteStatusDraft
	}
	v := validation.Violations{}
	if req.ClientID == 0 {
		v["client_id"] = "required"
	}
	if !models.ValidQuoteStatus(req.Status) {
		v["status"] = "invalid_value"
	}
	if !v.Empty() {
		httpx.Error(w, apperr.Validation(v))
		return
	}
	items, err := resolveItems(h.DB, uid, req.Items)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	q := models.Quote{
		ClientID:   req.ClientID,
		Status:     req.Status,
		IssueDate:  req.IssueDate,
		ValidUntil: req.ValidUntil,
		Notes:      req.Notes,
		Terms:      req.Terms,
		Items:      items,
	}
	if err := h.Svc.CreateQuote(uid, &q, key); err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "quotes", ID: q.ID, Action: "created"})
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *QuoteHandler) fetch(uid, id uint) (*models.Quote, error) {
	var q models.Quote
	if err := h.DB.Preload("Items").Preload("Client").First(&q, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("quote", id)
		}
		return nil, err
	}
	if err := gate.CheckOwner(uid, "quote", id, q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Get: GET /api/quotes/{id}
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	q, err := h.fetch(uid, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

// Update: PUT /api/quotes/{id}
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	q, err := h.fetch(uid, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var req quoteRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.Status == "" {
		req.Status = q.Status
	}
	v := validation.Violations{}
	if req.ClientID == 0 {
		v["client_id"] = "required"
	}
	if !models.ValidQuoteStatus(req.Status) {
		v["status"] = "invalid_value"
	}
	if !v.Empty() {
		httpx.Error(w, apperr.Validation(v))
		return
	}
	items, err := resolveItems(h.DB, uid, req.Items)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	q.ClientID = req.ClientID
	q.Status = req.Status
	q.IssueDate = req.IssueDate
	q.ValidUntil = req.ValidUntil
	q.Notes = req.Notes
	q.Terms = req.Terms
	q.Client = models.Client{}
	if err := h.Svc.UpdateQuote(uid, q, items); err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "quotes", ID: q.ID, Action: "updated"})
	httpx.JSON(w, http.StatusOK, q)
}

// Delete: DELETE /api/quotes/{id}
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if _, err := h.fetch(uid, id); err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.Svc.DeleteQuote(id); err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "quotes", ID: id, Action: "deleted"})
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Convert: POST /api/quotes/{id}/convert
func (h *QuoteHandler) Convert(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	inv, err := h.Svc.ConvertQuote(uid, id, time.Now())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "invoices", ID: inv.ID, Action: "created"})
	httpx.JSON(w, http.StatusCreated, inv)
}
