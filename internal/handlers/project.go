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

type ProjectHandler struct {
	DB  *gorm.DB
	Hub *events.Hub
}

func NewProjectHandler(db *gorm.DB, hub *events.Hub) *ProjectHandler {
	return &ProjectHandler{DB: db, Hub: hub}
}

func (h *ProjectHandler) validate(uid uint, p *models.Project) (validation.Violations, error) {
	v := validation.Violations{}
	validation.Required("name", p.Name, v)
	if p.Status == "" {
		p.Status = models.ProjectStatusPlanning
	}
	if !models.ValidProjectStatus(p.Status) {
		v["status"] = "invalid_value"
	}
	validation.NonNegativeFloat("hourly_rate", p.HourlyRate, v)
	validation.NonNegativeFloat("estimated_hours", p.EstimatedHours, v)
	if p.ClientID != nil {
		var c models.Client
		if err := h.DB.First(&c, *p.ClientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				v["client_id"] = "unknown_client"
			} else {
				return nil, err
			}
		} else if c.UserID != uid {
			return nil, apperr.Permission("client", *p.ClientID)
		}
	}
	return v, nil
}

// List: GET /api/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	limit, offset := pagination(r)
	dbq := h.DB.Where("user_id = ?", uid)
	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" && models.ValidProjectStatus(s) {
		dbq = dbq.Where("status = ?", s)
	}
	var total int64
	dbq.Model(&models.Project{}).Count(&total)
	var projects []models.Project
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&projects).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": projects, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /api/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	key := idemKey(r)
	if prior, ok, err := services.FindIdempotent(h.DB, uid, key, "project"); err != nil {
		httpx.Error(w, err)
		return
	} else if ok {
		var existing models.Project
		if err := h.DB.First(&existing, prior).Error; err == nil {
			httpx.JSON(w, http.StatusOK, existing)
			return
		}
	}
	var p models.Project
	if err := decodeJSON(r, &p); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v, err := h.validate(uid, &p)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if !v.Empty() {
		httpx.Error(w, apperr.Validation(v))
		return
	}
	p.ID = 0
	p.UserID = uid
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return services.RecordIdempotent(tx, uid, key, "project", p.ID)
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "projects", ID: p.ID, Action: "created"})
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *ProjectHandler) fetch(uid, id uint) (*models.Project, error) {
	var p models.Project
	if err := h.DB.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project", id)
		}
		return nil, err
	}
	if err := gate.CheckOwner(uid, "project", id, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Get: GET /api/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	p, err := h.fetch(uid, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// Update: PUT /api/projects/{id}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var in models.Project
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v, err := h.validate(uid, &in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if !v.Empty() {
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
	h.Hub.Publish(uid, events.Change{Collection: "projects", ID: in.ID, Action: "updated"})
	httpx.JSON(w, http.StatusOK, in)
}

// Delete: DELETE /api/projects/{id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.DB.Delete(&models.Project{}, id).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "projects", ID: id, Action: "deleted"})
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
