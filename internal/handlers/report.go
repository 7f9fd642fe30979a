package handlers

import (
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ldelattre/microgest/internal/applog"
	"github.com/ldelattre/microgest/internal/auth"
	"github.com/ldelattre/microgest/internal/httpx"
	"github.com/ldelattre/microgest/internal/models"
	"github.com/ldelattre/microgest/internal/report"
)

type ReportHandler struct {
	DB  *gorm.DB
	Log *applog.Logger
}

func NewReportHandler(db *gorm.DB, log *applog.Logger) *ReportHandler {
	return &ReportHandler{DB: db, Log: log.WithComponent("report")}
}

// Dashboard: GET /api/reports/dashboard
//
// The three reads fan out in parallel and a failed read contributes an empty
// slice: a partially degraded dashboard beats a 500.
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var (
		invoices []models.Invoice
		quotes   []models.Quote
		expenses []models.Expense
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		if err := h.DB.WithContext(ctx).Where("user_id = ?", uid).Find(&invoices).Error; err != nil {
			h.Log.Warn("dashboard invoice read failed", "error", err)
			invoices = nil
		}
		return nil
	})
	g.Go(func() error {
		if err := h.DB.WithContext(ctx).Where("user_id = ?", uid).Find(&quotes).Error; err != nil {
			h.Log.Warn("dashboard quote read failed", "error", err)
			quotes = nil
		}
		return nil
	})
	g.Go(func() error {
		if err := h.DB.WithContext(ctx).Where("user_id = ?", uid).Find(&expenses).Error; err != nil {
			h.Log.Warn("dashboard expense read failed", "error", err)
			expenses = nil
		}
		return nil
	})
	_ = g.Wait()

	httpx.JSON(w, http.StatusOK, report.Compute(time.Now(), invoices, quotes, expenses))
}
