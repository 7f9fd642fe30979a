package handlers

import (
	"errors"
	"net/http"
	"strings"

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

type ExpenseHandler struct {
	DB  *gorm.DB
	Hub *events.Hub
}

func NewExpenseHandler(db *gorm.DB, hub *events.Hub) *ExpenseHandler {
	return &ExpenseHandler{DB: db, Hub: hub}
}

func validateExpense(e *models.Expense) validation.Violations {
	v := validation.Violations{}
	validation.Required("description", e.Description, v)
	validation.PositiveFloat("amount", e.Amount, v)
	validation.NonNegativeFloat("tax_amount", e.TaxAmount, v)
	validation.DateNotZero("date", e.Date, v)
	return v
}

// List: GET /api/expenses
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	limit, offset := pagination(r)
	dbq := h.DB.Where("user_id = ?", uid)
	if cat := strings.TrimSpace(r.URL.Query().Get("category")); cat != "" {
		dbq = dbq.Where("category = ?", cat)
	}
	var total int64
	dbq.Model(&models.Expense{}).Count(&total)
	var expenses []models.Expense
	if err := dbq.Order("date desc, id desc").Limit(limit).Offset(offset).Find(&expenses).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": expenses, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /api/expenses
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	key := idemKey(r)
	if prior, ok, err := services.FindIdempotent(h.DB, uid, key, "expense"); err != nil {
		httpx.Error(w, err)
		return
	} else if ok {
		var existing models.Expense
		if err := h.DB.First(&existing, prior).Error; err == nil {
			httpx.JSON(w, http.StatusOK, existing)
			return
		}
	}
	var e models.Expense
	if err := decodeJSON(r, &e); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := validateExpense(&e); !v.Empty() {
		httpx.Error(w, apperr.Validation(v))
		return
	}
	e.ID = 0
	e.UserID = uid
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&e).Error; err != nil {
			return err
		}
		return services.RecordIdempotent(tx, uid, key, "expense", e.ID)
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "expenses", ID: e.ID, Action: "created"})
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *ExpenseHandler) fetch(uid, id uint) (*models.Expense, error) {
	var e models.Expense
	if err := h.DB.First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("expense", id)
		}
		return nil, err
	}
	if err := gate.CheckOwner(uid, "expense", id, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Get: GET /api/expenses/{id}
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	e, err := h.fetch(uid, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

// Update: PUT /api/expenses/{id}
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	existing, err := h.fetch(uid, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var in models.Expense
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := validateExpense(&in); !v.Empty() {
		httpx.Error(w, apperr.Validation(v))
		return
	}
	in.ID = existing.ID
	in.UserID = uid
	in.CreatedAt = existing.CreatedAt
	if err := h.DB.Save(&in).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "expenses", ID: in.ID, Action: "updated"})
	httpx.JSON(w, http.StatusOK, in)
}

// Delete: DELETE /api/expenses/{id}
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.DB.Delete(&models.Expense{}, id).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "expenses", ID: id, Action: "deleted"})
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
