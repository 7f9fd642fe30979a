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

func TestExpenseCreateAndUpdate(t *testing.T) {
	db := setupHandlerTestDB(t)
	user := seedUser(t, db, "expense@test")
	h := NewExpenseHandler(db, events.NewHub())

	body := `{"description":"hébergement","amount":12.5,"category":"infra","date":"2026-03-05T00:00:00Z"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(body)), user.ID)
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d body=%s", w.Code, w.Body.String())
	}
	var e models.Expense
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode: %v", err)
	}

	update := `{"description":"hébergement annuel","amount":120,"category":"infra","date":"2026-03-05T00:00:00Z"}`
	upReq := asUser(httptest.NewRequest(http.MethodPut, "/api/expenses/1", strings.NewReader(update)), user.ID)
	upReq.SetPathValue("id", itoa(e.ID))
	upW := httptest.NewRecorder()
	h.Update(upW, upReq)
	if upW.Code != http.StatusOK {
		t.Fatalf("update: got %d body=%s", upW.Code, upW.Body.String())
	}
	var updated models.Expense
	if err := json.Unmarshal(upW.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Amount != 120 || updated.ID != e.ID {
		t.Fatalf("updated expense: %#v", updated)
	}
}

func TestExpenseValidation(t *testing.T) {
	db := setupHandlerTestDB(t)
	user := seedUser(t, db, "expense@test")
	h := NewExpenseHandler(db, events.NewHub())

	cases := []struct {
		name string
		body string
	}{
		{"missing description", `{"amount":10,"date":"2026-03-05T00:00:00Z"}`},
		{"zero amount", `{"description":"x","amount":0,"date":"2026-03-05T00:00:00Z"}`},
		{"missing date", `{"description":"x","amount":10}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := asUser(httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(c.body)), user.ID)
			w := httptest.NewRecorder()
			h.Create(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("got %d body=%s", w.Code, w.Body.String())
			}
		})
	}
}
