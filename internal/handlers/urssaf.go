package handlers

import (
	"net/http"

	"github.com/ldelattre/microgest/internal/apperr"
	"github.com/ldelattre/microgest/internal/httpx"
	"github.com/ldelattre/microgest/internal/urssaf"
	"github.com/ldelattre/microgest/internal/validation"
)

type URSSAFHandler struct{}

func NewURSSAFHandler() *URSSAFHandler { return &URSSAFHandler{} }

type simulateRequest struct {
	Revenue  float64 `json:"revenue"`
	Activity string  `json:"activity"`
	ACRE     bool    `json:"acre"`
	FlatRate bool    `json:"flat_rate"` // versement libératoire
}

// Simulate: POST /api/urssaf/simulate
func (h *URSSAFHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.NonNegativeFloat("revenue", req.Revenue, v)
	if !urssaf.Activity(req.Activity).Valid() {
		v["activity"] = "invalid_value"
	}
	if !v.Empty() {
		httpx.Error(w, apperr.Validation(v))
		return
	}
	httpx.JSON(w, http.StatusOK, urssaf.Simulate(req.Revenue, urssaf.Activity(req.Activity), req.ACRE, req.FlatRate))
}
