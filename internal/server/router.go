package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ldelattre/microgest/internal/applog"
	"github.com/ldelattre/microgest/internal/auth"
	"github.com/ldelattre/microgest/internal/events"
	"github.com/ldelattre/microgest/internal/handlers"
	"github.com/ldelattre/microgest/internal/httpx"
	"github.com/ldelattre/microgest/internal/models"
	"github.com/ldelattre/microgest/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, hub *events.Hub, log *applog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Configure a user verifier so RequireAuth can ensure the user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "degraded", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth endpoints (no token required)
	ah := handlers.NewAuthHandler(db)
	mux.HandleFunc("POST /api/auth/signup", ah.Signup)
	mux.HandleFunc("POST /api/auth/login", ah.Login)
	protect := func(h http.HandlerFunc) http.Handler { return auth.RequireAuth(h) }
	mux.Handle("GET /api/auth/me", protect(ah.Me))

	// Entity CRUD
	docSvc := services.NewDocumentService(db)

	ch := handlers.NewClientHandler(db, hub)
	mux.Handle("GET /api/clients", protect(ch.List))
	mux.Handle("POST /api/clients", protect(ch.Create))
	mux.Handle("GET /api/clients/{id}", protect(ch.Get))
	mux.Handle("PUT /api/clients/{id}", protect(ch.Update))
	mux.Handle("DELETE /api/clients/{id}", protect(ch.Delete))

	ph := handlers.NewProjectHandler(db, hub)
	mux.Handle("GET /api/projects", protect(ph.List))
	mux.Handle("POST /api/projects", protect(ph.Create))
	mux.Handle("GET /api/projects/{id}", protect(ph.Get))
	mux.Handle("PUT /api/projects/{id}", protect(ph.Update))
	mux.Handle("DELETE /api/projects/{id}", protect(ph.Delete))

	qh := handlers.NewQuoteHandler(db, docSvc, hub)
	mux.Handle("GET /api/quotes", protect(qh.List))
	mux.Handle("POST /api/quotes", protect(qh.Create))
	mux.Handle("GET /api/quotes/{id}", protect(qh.Get))
	mux.Handle("PUT /api/quotes/{id}", protect(qh.Update))
	mux.Handle("DELETE /api/quotes/{id}", protect(qh.Delete))
	mux.Handle("POST /api/quotes/{id}/convert", protect(qh.Convert))

	ih := handlers.NewInvoiceHandler(db, docSvc, hub)
	mux.Handle("GET /api/invoices", protect(ih.List))
	mux.Handle("POST /api/invoices", protect(ih.Create))
	mux.Handle("GET /api/invoices/{id}", protect(ih.Get))
	mux.Handle("PUT /api/invoices/{id}", protect(ih.Update))
	mux.Handle("DELETE /api/invoices/{id}", protect(ih.Delete))

	cath := handlers.NewCatalogHandler(db, hub)
	mux.Handle("GET /api/catalog", protect(cath.List))
	mux.Handle("POST /api/catalog", protect(cath.Create))
	mux.Handle("GET /api/catalog/{id}", protect(cath.Get))
	mux.Handle("PUT /api/catalog/{id}", protect(cath.Update))
	mux.Handle("DELETE /api/catalog/{id}", protect(cath.Delete))

	eh := handlers.NewExpenseHandler(db, hub)
	mux.Handle("GET /api/expenses", protect(eh.List))
	mux.Handle("POST /api/expenses", protect(eh.Create))
	mux.Handle("GET /api/expenses/{id}", protect(eh.Get))
	mux.Handle("PUT /api/expenses/{id}", protect(eh.Update))
	mux.Handle("DELETE /api/expenses/{id}", protect(eh.Delete))

	th := handlers.NewTimeEntryHandler(db, services.NewTimeService(db), hub)
	mux.Handle("GET /api/time-entries", protect(th.List))
	mux.Handle("POST /api/time-entries", protect(th.Create))
	mux.Handle("POST /api/time-entries/start", protect(th.Start))
	mux.Handle("GET /api/time-entries/{id}", protect(th.Get))
	mux.Handle("PUT /api/time-entries/{id}", protect(th.Update))
	mux.Handle("DELETE /api/time-entries/{id}", protect(th.Delete))
	mux.Handle("POST /api/time-entries/{id}/stop", protect(th.Stop))

	rh := handlers.NewReportHandler(db, log)
	mux.Handle("GET /api/reports/dashboard", protect(rh.Dashboard))

	uh := handlers.NewURSSAFHandler()
	mux.Handle("POST /api/urssaf/simulate", protect(uh.Simulate))

	evh := handlers.NewEventsHandler(hub)
	mux.Handle("GET /api/events", protect(evh.Stream))

	return auth.Middleware(withRecover(withLogging(log, mux)))
}

func withLogging(log *applog.Logger, next http.Handler) http.Handler {
	l := log.WithComponent("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		l.Info("request", "id", reqID, "method", r.Method, "path", r.URL.Path, "status", sw.status, "duration", time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so SSE keeps working behind the
// logging middleware.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
