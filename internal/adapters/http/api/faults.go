package api

import (
	"context"
	"net/http"

	"github.com/okian/rotorsim/internal/domain/model"
)

// FaultsDependencies defines the operator views.
type FaultsDependencies interface {
	FaultLog(ctx context.Context) []model.FaultEvent
	State(ctx context.Context) model.State
}

// FaultsHandler handles fault log and state requests.
type FaultsHandler struct {
	deps FaultsDependencies
}

// NewFaultsHandler creates a new faults handler.
func NewFaultsHandler(deps FaultsDependencies) *FaultsHandler {
	return &FaultsHandler{deps: deps}
}

type faultsResponse struct {
	Entries []string `json:"entries"`
}

// HandleFaults handles GET /api/faults.
func (h *FaultsHandler) HandleFaults(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	events := h.deps.FaultLog(r.Context())
	resp := faultsResponse{Entries: make([]string, len(events))}
	for i, e := range events {
		resp.Entries[i] = e.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleState handles GET /api/state.
func (h *FaultsHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.State(r.Context()))
}
