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

type CatalogHandler struct {
	DB  *gorm.DB
	Hub *events.Hub
}

func NewCatalogHandler(db *gorm.DB, hub *events.Hub) *CatalogHandler {
	return &CatalogHandler{DB: db, Hub: hub}
}

func validateCatalogItem(c *models.CatalogItem) validation.Violations {
	v := validation.Violations{}
	validation.Required("name", c.Name, v)
	validation.PositiveFloat("unit_price", c.UnitPrice, v)
	if c.TaxRate != 0 {
		validation.RangeFloat("tax_rate", c.TaxRate, 0, 1, v)
	}
	return v
}

// List: GET /api/catalog
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	limit, offset := pagination(r)
	dbq := h.DB.Where("user_id = ?", uid)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(likeSafeRe.ReplaceAllString(q, "")) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(category) LIKE ?", like, like)
	}
	var total int64
	dbq.Model(&models.CatalogItem{}).Count(&total)
	var items []models.CatalogItem
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /api/catalog
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	key := idemKey(r)
	if prior, ok, err := services.FindIdempotent(h.DB, uid, key, "catalog_item"); err != nil {
		httpx.Error(w, err)
		return
	} else if ok {
		var existing models.CatalogItem
		if err := h.DB.First(&existing, prior).Error; err == nil {
			httpx.JSON(w, http.StatusOK, existing)
			return
		}
	}
	var c models.CatalogItem
	if err := decodeJSON(r, &c); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := validateCatalogItem(&c); !v.Empty() {
		httpx.Error(w, apperr.Validation(v))
		return
	}
	c.ID = 0
	c.UserID = uid
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&c).Error; err != nil {
			return err
		}
		return services.RecordIdempotent(tx, uid, key, "catalog_item", c.ID)
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "catalog", ID: c.ID, Action: "created"})
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *CatalogHandler) fetch(uid, id uint) (*models.CatalogItem, error) {
	var c models.CatalogItem
	if err := h.DB.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("catalog_item", id)
		}
		return nil, err
	}
	if err := gate.CheckOwner(uid, "catalog_item", id, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get: GET /api/catalog/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	c, err := h.fetch(uid, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

// Update: PUT /api/catalog/{id}
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var in models.CatalogItem
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := validateCatalogItem(&in); !v.Empty() {
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
	h.Hub.Publish(uid, events.Change{Collection: "catalog", ID: in.ID, Action: "updated"})
	httpx.JSON(w, http.StatusOK, in)
}

// Delete: DELETE /api/catalog/{id}
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.DB.Delete(&models.CatalogItem{}, id).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "catalog", ID: id, Action: "deleted"})
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
