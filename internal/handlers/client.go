package handlers

import (
	"errors"
	"net/http"
	"regexp"
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

var likeSafeRe = regexp.MustCompile(`[^a-zA-Z0-9 \-_@.]`)

type ClientHandler struct {
	DB  *gorm.DB
	Hub *events.Hub
}

func NewClientHandler(db *gorm.DB, hub *events.Hub) *ClientHandler {
	return &ClientHandler{DB: db, Hub: hub}
}

func validateClient(c *models.Client) validation.Violations {
	v := validation.Violations{}
	c.Kind = strings.TrimSpace(c.Kind)
	if c.Kind == "" {
		c.Kind = models.ClientKindCompany
	}
	validation.OneOf("kind", c.Kind, []string{models.ClientKindIndividual, models.ClientKindCompany}, v)
	if c.Kind == models.ClientKindCompany {
		validation.Required("raison_sociale", c.RaisonSociale, v)
	} else {
		validation.Required("nom", c.Nom, v)
	}
	if c.SIRET != "" && len(c.SIRET) != 14 {
		v["siret"] = "siret_length"
	}
	return v
}

// List: GET /api/clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	limit, offset := pagination(r)
	dbq := h.DB.Where("user_id = ?", uid)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(likeSafeRe.ReplaceAllString(q, "")) + "%"
		dbq = dbq.Where("lower(nom) LIKE ? OR lower(raison_sociale) LIKE ? OR lower(email) LIKE ?", like, like, like)
	}
	var total int64
	dbq.Model(&models.Client{}).Count(&total)
	var clients []models.Client
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&clients).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": clients, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /api/clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	key := idemKey(r)
	if prior, ok, err := services.FindIdempotent(h.DB, uid, key, "client"); err != nil {
		httpx.Error(w, err)
		return
	} else if ok {
		var existing models.Client
		if err := h.DB.First(&existing, prior).Error; err == nil {
			httpx.JSON(w, http.StatusOK, existing)
			return
		}
	}
	var c models.Client
	if err := decodeJSON(r, &c); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := validateClient(&c); !v.Empty() {
		httpx.Error(w, apperr.Validation(v))
		return
	}
	c.ID = 0
	c.UserID = uid
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&c).Error; err != nil {
			return err
		}
		return services.RecordIdempotent(tx, uid, key, "client", c.ID)
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "clients", ID: c.ID, Action: "created"})
	httpx.JSON(w, http.StatusCreated, c)
}

// fetch loads an owned client or returns a classified error.
func (h *ClientHandler) fetch(uid, id uint) (*models.Client, error) {
	var c models.Client
	if err := h.DB.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("client", id)
		}
		return nil, err
	}
	if err := gate.CheckOwner(uid, "client", id, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get: GET /api/clients/{id}
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
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

// Update: PUT /api/clients/{id}
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var in models.Client
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := validateClient(&in); !v.Empty() {
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
	h.Hub.Publish(uid, events.Change{Collection: "clients", ID: in.ID, Action: "updated"})
	httpx.JSON(w, http.StatusOK, in)
}

// Delete: DELETE /api/clients/{id}
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.DB.Delete(&models.Client{}, id).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "clients", ID: id, Action: "deleted"})
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
