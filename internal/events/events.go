// Package events pushes entity-change signals to connected clients over
// server-sent events. Semantics are deliberately weak: no ordering across
// collections, no replay, last write wins; a client reacting to a signal
// refetches the collection.
package events

import (
	"encoding/json"
	"sync"
)

// Change identifies what moved, not what it became.
type Change struct {
	Collection string `json:"collection"` // ex: "invoices"
	ID         uint   `json:"id"`
	Action     string `json:"action"` // created | updated | deleted
}

// Hub fans changes out to per-user subscriber channels. Slow subscribers
// drop signals instead of blocking publishers.
type Hub struct {
	mu   sync.Mutex
	subs map[uint]map[chan Change]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[uint]map[chan Change]struct{}{}}
}

// Subscribe registers a listener for the user's changes. The returned cancel
// func must be called when the client disconnects.
func (h *Hub) Subscribe(userID uint) (<-chan Change, func()) {
	ch := make(chan Change, 16)
	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = map[chan Change]struct{}{}
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[userID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, userID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish notifies the user's subscribers. Never blocks.
func (h *Hub) Publish(userID uint, c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[userID] {
		select {
		case ch <- c:
		default: // subscriber is behind; it will resync on its next signal
		}
	}
}

// Encode renders the change as an SSE data payload.
func (c Change) Encode() []byte {
	b, _ := json.Marshal(c)
	return b
}
