package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// pathID reads the {id} route wildcard.
func pathID(r *http.Request) (uint, bool) {
	n, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return uint(n), true
}

// pagination reads limit (default 50, max 200) and page (1-based).
func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// idemKey returns the Idempotency-Key header, truncated to the storage size.
func idemKey(r *http.Request) string {
	k := r.Header.Get("Idempotency-Key")
	if len(k) > 80 {
		k = k[:80]
	}
	return k
}
