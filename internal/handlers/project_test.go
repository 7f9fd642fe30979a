package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ldelattre/microgest/internal/events"
	"github.com/ldelattre/microgest/internal/models"
)

func TestProjectCreate(t *testing.T) {
	db := setupHandlerTestDB(t)
	user := seedUser(t, db, "project@test")
	client := seedClient(t, db, user.ID)
	h := NewProjectHandler(db, events.NewHub())

	body := `{"name":"Refonte site","client_id":` + itoa(client.ID) + `,"hourly_rate":65,"estimated_hours":40}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(body)), user.ID)
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d body=%s", w.Code, w.Body.String())
	}
	var p models.Project
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Status != models.ProjectStatusPlanning {
		t.Fatalf("default status: got %q want planning", p.Status)
	}
}

func TestProjectValidation(t *testing.T) {
	db := setupHandlerTestDB(t)
	user := seedUser(t, db, "project@test")
	other := seedUser(t, db, "other@test")
	foreign := seedClient(t, db, other.ID)
	h := NewProjectHandler(db, events.NewHub())

	post := func(body string) *httptest.ResponseRecorder {
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(body)), user.ID)
		w := httptest.NewRecorder()
		h.Create(w, req)
		return w
	}

	if w := post(`{"status":"active"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing name: got %d", w.Code)
	}
	if w := post(`{"name":"x","status":"archived"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad status: got %d", w.Code)
	}
	if w := post(`{"name":"x","client_id":9999}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown client: got %d", w.Code)
	}
	if w := post(`{"name":"x","client_id":` + itoa(foreign.ID) + `}`); w.Code != http.StatusForbidden {
		t.Fatalf("foreign client: got %d body=%s", w.Code, w.Body.String())
	}
}
