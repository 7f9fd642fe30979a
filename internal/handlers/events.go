package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ldelattre/microgest/internal/auth"
	"github.com/ldelattre/microgest/internal/events"
	"github.com/ldelattre/microgest/internal/httpx"
)

type EventsHandler struct{ Hub *events.Hub }

func NewEventsHandler(hub *events.Hub) *EventsHandler { return &EventsHandler{Hub: hub} }

// Stream: GET /api/events streams the owner's change signals over SSE.
// Clients treat a signal as a cache-invalidation hint and refetch;
// there is no replay and no ordering guarantee across collections.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.JSONError(w, http.StatusInternalServerError, "streaming_unsupported", nil)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := h.Hub.Subscribe(uid)
	defer cancel()

	// Periodic comment keeps intermediaries from closing the idle stream.
	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case c, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", c.Encode())
			flusher.Flush()
		}
	}
}
