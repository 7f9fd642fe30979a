package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/ldelattre/microgest/internal/apperr"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Error maps classified errors (apperr) to HTTP statuses; anything
// unclassified becomes a 500 with an opaque message.
func Error(w http.ResponseWriter, err error) {
	if ve, ok := apperr.IsValidation(err); ok {
		JSONError(w, http.StatusBadRequest, "validation_failed", ve.Fields)
		return
	}
	if _, ok := apperr.IsNotFound(err); ok {
		JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if _, ok := apperr.IsPermission(err); ok {
		JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	if _, ok := apperr.IsTransient(err); ok {
		w.Header().Set("Retry-After", "2")
		JSONError(w, http.StatusServiceUnavailable, "temporarily_unavailable", nil)
		return
	}
	JSONError(w, http.StatusInternalServerError, "internal_error", nil)
}
