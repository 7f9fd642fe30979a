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

type invoiceRequest struct {
	ClientID     uint          `json:"client_id"`
	Status       string        `json:"status"`
	IssueDate    *time.Time    `json:"issue_date"`
	DueDate      *time.Time    `json:"due_date"`
	PaidDate     *time.Time    `json:"paid_date"`
	Notes        string        `json:"notes"`
	PaymentTerms string        `json:"payment_terms"`
	Items        []itemRequest `json:"items"`
}

func (req *invoiceRequest) validate() validation.Violations {
	v := validation.Violations{}
	if req.ClientID == 0 {
		v["client_id"] = "required"
	}
	if !models.ValidInvoiceStatus(req.Status) {
		v["status"] = "invalid_value"
	}
	if req.Status == models.InvoiceStatusPaid && req.PaidDate == nil {
		v["paid_date"] = "required_when_paid"
	}
	return v
}

type InvoiceHandler struct {
	DB  *gorm.DB
	Svc *services.DocumentService
	Hub *events.Hub
}

func NewInvoiceHandler(db *gorm.DB, svc *services.DocumentService, hub *events.Hub) *InvoiceHandler {
	return &InvoiceHandler{DB: db, Svc: svc, Hub: hub}
}

// List: GET /api/invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	limit, offset := pagination(r)
	dbq := h.DB.Where("user_id = ?", uid)
	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" && models.ValidInvoiceStatus(s) {
		dbq = dbq.Where("status = ?", s)
	}
	var total int64
	dbq.Model(&models.Invoice{}).Count(&total)
	var invoices []models.Invoice
	if err := dbq.Preload("Items").Order("id desc").Limit(limit).Offset(offset).Find(&invoices).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": invoices, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /api/invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	key := idemKey(r)
	if prior, ok, err := services.FindIdempotent(h.DB, uid, key, "invoice"); err != nil {
		httpx.Error(w, err)
		return
	} else if ok {
		var existing models.Invoice
		if err := h.DB.Preload("Items").First(&existing, prior).Error; err == nil {
			httpx.JSON(w, http.StatusOK, existing)
			return
		}
	}
	var req invoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.Status == "" {
		req.Status = models.InvoiceStatusDraft
	}
	if v := req.validate(); !v.Empty() {
		httpx.Error(w, apperr.Validation(v))
		return
	}
	items, err := resolveItems(h.DB, uid, req.Items)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	inv := models.Invoice{
		ClientID:     req.ClientID,
		Status:       req.Status,
		IssueDate:    req.IssueDate,
		DueDate:      req.DueDate,
		PaidDate:     req.PaidDate,
		Notes:        req.Notes,
		PaymentTerms: req.PaymentTerms,
		Items:        items,
	}
	if err := h.Svc.CreateInvoice(uid, &inv, key); err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "invoices", ID: inv.ID, Action: "created"})
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) fetch(uid, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := h.DB.Preload("Items").Preload("Client").First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("invoice", id)
		}
		return nil, err
	}
	if err := gate.CheckOwner(uid, "invoice", id, inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Get: GET /api/invoices/{id}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	inv, err := h.fetch(uid, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Update: PUT /api/invoices/{id}
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	inv, err := h.fetch(uid, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var req invoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.Status == "" {
		req.Status = inv.Status
	}
	if v := req.validate(); !v.Empty() {
		httpx.Error(w, apperr.Validation(v))
		return
	}
	items, err := resolveItems(h.DB, uid, req.Items)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	inv.ClientID = req.ClientID
	inv.Status = req.Status
	inv.IssueDate = req.IssueDate
	inv.DueDate = req.DueDate
	inv.PaidDate = req.PaidDate
	inv.Notes = req.Notes
	inv.PaymentTerms = req.PaymentTerms
	inv.Client = models.Client{}
	if err := h.Svc.UpdateInvoice(uid, inv, items); err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "invoices", ID: inv.ID, Action: "updated"})
	httpx.JSON(w, http.StatusOK, inv)
}

// Delete: DELETE /api/invoices/{id}
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Svc.DeleteInvoice(id); err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "invoices", ID: id, Action: "deleted"})
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
