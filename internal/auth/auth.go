// Package auth issues and verifies HMAC-signed bearer tokens. A token is
// "<uid>.<expiry>.<sig>" where sig = HMAC-SHA256(secret, uid.expiry). The
// acting user id always travels through the request context; nothing in the
// application reads ambient auth state.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ldelattre/microgest/internal/httpx"
)

type ctxKey string

const userIDCtxKey = ctxKey("userID")

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 14 * 24 * time.Hour

// UserVerifier is an optional callback to validate that a token's user still
// exists/is allowed. Set it during app bootstrap via SetUserVerifier. If nil,
// no extra verification is performed.
type UserVerifier func(ctx context.Context, uid uint) bool

var verifier UserVerifier

// SetUserVerifier configures the global verifier used by RequireAuth.
func SetUserVerifier(v UserVerifier) { verifier = v }

// Secret returns SESSION_SECRET or default dev value.
func Secret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "devsessionsecret"
}

func sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(Secret()))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// IssueToken creates a signed bearer token for the user.
func IssueToken(userID uint) string {
	payload := strconv.FormatUint(uint64(userID), 10) + "." +
		strconv.FormatInt(time.Now().Add(TokenTTL).Unix(), 10)
	return payload + "." + sign(payload)
}

// ParseToken validates a token value and returns the user id.
func ParseToken(token string) (uint, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0, false
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(sign(payload))) {
		return 0, false
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() > exp {
		return 0, false
	}
	id64, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id64), true
}

// FromRequest extracts and validates the Authorization: Bearer token.
func FromRequest(r *http.Request) (uint, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return 0, false
	}
	return ParseToken(strings.TrimSpace(h[len(prefix):]))
}

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	v := ctx.Value(userIDCtxKey)
	if v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// Middleware attaches user id to request context if a valid token is present.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := FromRequest(r); ok {
			r = r.WithContext(WithUserID(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests without a valid authenticated user.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		if verifier != nil && !verifier(r.Context(), uid) {
			// Token refers to a non-existing/disabled user.
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
