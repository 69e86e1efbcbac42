package api

import (
	"context"
	"net/http"

	"github.com/okian/rotorsim/internal/domain/model"
)

// KPIDependencies defines the read side used by the dashboard gauges and
// charts.
type KPIDependencies interface {
	Snapshot(ctx context.Context) model.Snapshot
	Charts(ctx context.Context) model.Charts
}

// KPIHandler handles KPI and chart requests.
type KPIHandler struct {
	deps KPIDependencies
}

// NewKPIHandler creates a new KPI handler.
func NewKPIHandler(deps KPIDependencies) *KPIHandler {
	return &KPIHandler{deps: deps}
}

// HandleKPI handles GET /api/kpi. Each call advances the simulation one
// step, so the polling rate adds to the background cadence.
func (h *KPIHandler) HandleKPI(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Snapshot(r.Context()))
}

// HandleCharts handles GET /api/charts without advancing the simulation.
func (h *KPIHandler) HandleCharts(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	c := h.deps.Charts(r.Context())
	if c.TorqueHistory == nil {
		c.TorqueHistory = []float64{}
	}
	if c.TempHistory == nil {
		c.TempHistory = []float64{}
	}
	if c.RULProjection == nil {
		c.RULProjection = []float64{}
	}
	writeJSON(w, http.StatusOK, c)
}
