package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ldelattre/microgest/internal/events"
	"github.com/ldelattre/microgest/internal/models"
	"github.com/ldelattre/microgest/internal/services"
)

func TestTimeEntryStartStop(t *testing.T) {
	db := setupHandlerTestDB(t)
	user := seedUser(t, db, "time@test")
	h := NewTimeEntryHandler(db, services.NewTimeService(db), events.NewHub())

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/time-entries/start", strings.NewReader(`{"description":"maquette"}`)), user.ID)
	w := httptest.NewRecorder()
	h.Start(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("start: got %d body=%s", w.Code, w.Body.String())
	}
	var entry models.TimeEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !entry.Running() {
		t.Fatal("entry should be running")
	}

	// the running filter sees it
	listW := httptest.NewRecorder()
	h.List(listW, asUser(httptest.NewRequest(http.MethodGet, "/api/time-entries?running=true", nil), user.ID))
	var list struct {
		Items []models.TimeEntry `json:"items"`
	}
	if err := json.Unmarshal(listW.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != entry.ID {
		t.Fatalf("running filter: %#v", list.Items)
	}

	stopReq := asUser(httptest.NewRequest(http.MethodPost, "/api/time-entries/1/stop", nil), user.ID)
	stopReq.SetPathValue("id", itoa(entry.ID))
	stopW := httptest.NewRecorder()
	h.Stop(stopW, stopReq)
	if stopW.Code != http.StatusOK {
		t.Fatalf("stop: got %d body=%s", stopW.Code, stopW.Body.String())
	}
	var stopped models.TimeEntry
	if err := json.Unmarshal(stopW.Body.Bytes(), &stopped); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stopped.Running() {
		t.Fatal("entry should be stopped")
	}

	// stopping again is a validation error
	again := asUser(httptest.NewRequest(http.MethodPost, "/api/time-entries/1/stop", nil), user.ID)
	again.SetPathValue("id", itoa(entry.ID))
	againW := httptest.NewRecorder()
	h.Stop(againW, again)
	if againW.Code != http.StatusBadRequest {
		t.Fatalf("double stop: got %d body=%s", againW.Code, againW.Body.String())
	}
}

func TestTimeEntryCreateAfterTheFact(t *testing.T) {
	db := setupHandlerTestDB(t)
	user := seedUser(t, db, "time@test")
	h := NewTimeEntryHandler(db, services.NewTimeService(db), events.NewHub())

	start := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	body, _ := json.Marshal(map[string]any{"description": "réunion client", "start": start, "end": end})
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/time-entries", strings.NewReader(string(body))), user.ID)
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d body=%s", w.Code, w.Body.String())
	}
	var entry models.TimeEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry.DurationSeconds != 5400 {
		t.Fatalf("duration: got %d want 5400", entry.DurationSeconds)
	}

	// open-ended after-the-fact entries are rejected; /start owns those
	openBody, _ := json.Marshal(map[string]any{"start": start})
	openReq := asUser(httptest.NewRequest(http.MethodPost, "/api/time-entries", strings.NewReader(string(openBody))), user.ID)
	openW := httptest.NewRecorder()
	h.Create(openW, openReq)
	if openW.Code != http.StatusBadRequest {
		t.Fatalf("open entry: got %d body=%s", openW.Code, openW.Body.String())
	}
}

func TestTimeEntryUnknownProject(t *testing.T) {
	db := setupHandlerTestDB(t)
	user := seedUser(t, db, "time@test")
	h := NewTimeEntryHandler(db, services.NewTimeService(db), events.NewHub())

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/time-entries/start", strings.NewReader(`{"project_id":999}`)), user.ID)
	w := httptest.NewRecorder()
	h.Start(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}
}
