package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/rotorsim/pkg/logger"
)

const (
	maxControlBody = 1 << 10

	msgInvalidCommand  = "Invalid command"
	msgMaintenanceDone = "Maintenance successfully performed. Health restored to 100%."
	msgMaintenanceFail = "Maintenance failed: "
)

// ControlDependencies defines the mutating operations.
type ControlDependencies interface {
	Command(ctx context.Context, cmd string) (string, error)
	PerformMaintenance(ctx context.Context) error
}

// ControlHandler handles control and maintenance requests.
type ControlHandler struct {
	deps   ControlDependencies
	logger logger.Logger
}

// NewControlHandler creates a new control handler.
func NewControlHandler(deps ControlDependencies) *ControlHandler {
	return &ControlHandler{deps: deps, logger: logger.Get().Named("api")}
}

type controlRequest struct {
	Command string `json:"command"`
}

// HandleControl handles POST /api/control {"command": "..."}.
func (h *ControlHandler) HandleControl(w http.ResponseWriter, r *http.Request) {
	const op = "api.control"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req controlRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxControlBody)).Decode(&req); err != nil {
		h.logger.Debug(r.Context(), "malformed control body", logger.Error(wrapKind(op, ErrBadRequest, err)))
		writeError(w, http.StatusBadRequest, msgInvalidCommand)
		return
	}

	msg, err := h.deps.Command(r.Context(), req.Command)
	if err != nil {
		h.logger.Debug(r.Context(), "control command rejected", logger.Error(wrapKind(op, ErrBadRequest, err)))
		writeError(w, http.StatusBadRequest, msgInvalidCommand)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

// HandleMaintenance handles POST /api/maintenance.
func (h *ControlHandler) HandleMaintenance(w http.ResponseWriter, r *http.Request) {
	const op = "api.maintenance"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	if err := h.deps.PerformMaintenance(r.Context()); err != nil {
		h.logger.Error(r.Context(), "maintenance failed", logger.Error(wrapKind(op, ErrInternal, err)))
		writeError(w, http.StatusInternalServerError, msgMaintenanceFail+cause(err))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msgMaintenanceDone})
}

// cause drops the leading error kind from a "kind: detail" error text.
func cause(err error) string {
	if _, detail, ok := strings.Cut(err.Error(), ": "); ok {
		return detail
	}
	return err.Error()
}
