package handlers

import (
	"errors"
	"net/http"
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

type TimeEntryHandler struct {
	DB  *gorm.DB
	Svc *services.TimeService
	Hub *events.Hub
}

func NewTimeEntryHandler(db *gorm.DB, svc *services.TimeService, hub *events.Hub) *TimeEntryHandler {
	return &TimeEntryHandler{DB: db, Svc: svc, Hub: hub}
}

// checkProject validates an optional project reference.
func (h *TimeEntryHandler) checkProject(uid uint, projectID *uint) error {
	if projectID == nil {
		return nil
	}
	var p models.Project
	if err := h.DB.First(&p, *projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Validation(map[string]string{"project_id": "unknown_project"})
		}
		return err
	}
	if p.UserID != uid {
		return apperr.Permission("project", *projectID)
	}
	return nil
}

// List: GET /api/time-entries
func (h *TimeEntryHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	limit, offset := pagination(r)
	dbq := h.DB.Where("user_id = ?", uid)
	if r.URL.Query().Get("running") == "true" {
		dbq = dbq.Where("end_time IS NULL")
	}
	var total int64
	dbq.Model(&models.TimeEntry{}).Count(&total)
	var entries []models.TimeEntry
	if err := dbq.Order("start_time desc").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": entries, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /api/time-entries records a completed entry after the fact.
func (h *TimeEntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var e models.TimeEntry
	if err := decodeJSON(r, &e); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.DateNotZero("start", e.Start, v)
	if e.End == nil {
		v["end"] = "required" // use /start for a live timer
	} else if !e.End.After(e.Start) {
		v["end"] = "must_be_after_start"
	}
	if !v.Empty() {
		httpx.Error(w, apperr.Validation(v))
		return
	}
	if err := h.checkProject(uid, e.ProjectID); err != nil {
		httpx.Error(w, err)
		return
	}
	e.ID = 0
	e.UserID = uid
	e.DurationSeconds = int64(e.End.Sub(e.Start).Seconds())
	if err := h.DB.Create(&e).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "time-entries", ID: e.ID, Action: "created"})
	httpx.JSON(w, http.StatusCreated, e)
}

// Start: POST /api/time-entries/start
func (h *TimeEntryHandler) Start(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req struct {
		ProjectID   *uint  `json:"project_id"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := h.checkProject(uid, req.ProjectID); err != nil {
		httpx.Error(w, err)
		return
	}
	entry, err := h.Svc.Start(uid, req.ProjectID, req.Description, time.Now())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "time-entries", ID: entry.ID, Action: "created"})
	httpx.JSON(w, http.StatusCreated, entry)
}

// Stop: POST /api/time-entries/{id}/stop
func (h *TimeEntryHandler) Stop(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	entry, err := h.Svc.Stop(uid, id, time.Now())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "time-entries", ID: entry.ID, Action: "updated"})
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *TimeEntryHandler) fetch(uid, id uint) (*models.TimeEntry, error) {
	var e models.TimeEntry
	if err := h.DB.First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("time_entry", id)
		}
		return nil, err
	}
	if err := gate.CheckOwner(uid, "time_entry", id, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Get: GET /api/time-entries/{id}
func (h *TimeEntryHandler) Get(w http.ResponseWriter, r *http.Request) {
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

// Update: PUT /api/time-entries/{id}
func (h *TimeEntryHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var in models.TimeEntry
	if err := decodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.DateNotZero("start", in.Start, v)
	if in.End != nil && !in.End.After(in.Start) {
		v["end"] = "must_be_after_start"
	}
	if !v.Empty() {
		httpx.Error(w, apperr.Validation(v))
		return
	}
	if err := h.checkProject(uid, in.ProjectID); err != nil {
		httpx.Error(w, err)
		return
	}
	in.ID = existing.ID
	in.UserID = uid
	in.CreatedAt = existing.CreatedAt
	if in.End != nil {
		in.DurationSeconds = int64(in.End.Sub(in.Start).Seconds())
	} else {
		in.DurationSeconds = 0
	}
	if err := h.DB.Save(&in).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "time-entries", ID: in.ID, Action: "updated"})
	httpx.JSON(w, http.StatusOK, in)
}

// Delete: DELETE /api/time-entries/{id}
func (h *TimeEntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.DB.Delete(&models.TimeEntry{}, id).Error; err != nil {
		httpx.Error(w, err)
		return
	}
	h.Hub.Publish(uid, events.Change{Collection: "time-entries", ID: id, Action: "deleted"})
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
