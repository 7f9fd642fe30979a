package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ldelattre/microgest/internal/events"
)

func TestStreamDeliversChanges(t *testing.T) {
	hub := events.NewHub()
	h := NewEventsHandler(hub)

	ctx, cancel := context.WithCancel(context.Background())
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx), 1)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.Stream(w, req)
		close(done)
	}()

	// The subscription is registered asynchronously; keep publishing until
	// the handler has had a chance to pick a signal up.
	change := events.Change{Collection: "clients", ID: 7, Action: "created"}
	for i := 0; i < 100; i++ {
		hub.Publish(1, change)
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not terminate on context cancel")
	}

	body := w.Body.String()
	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatalf("content type: %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(body, "event: change") {
		t.Fatalf("no change event in stream: %q", body)
	}
	if !strings.Contains(body, `"collection":"clients"`) || !strings.Contains(body, `"action":"created"`) {
		t.Fatalf("payload missing: %q", body)
	}
}

func TestStreamOtherUsersChangesNotDelivered(t *testing.T) {
	hub := events.NewHub()
	h := NewEventsHandler(hub)

	ctx, cancel := context.WithCancel(context.Background())
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx), 1)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.Stream(w, req)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	hub.Publish(2, events.Change{Collection: "invoices", ID: 1, Action: "updated"})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if strings.Contains(w.Body.String(), "event: change") {
		t.Fatalf("leaked another user's change: %q", w.Body.String())
	}
}
