// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/rotorsim/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Snapshot advances the simulation one step.
	Snapshot(ctx context.Context) model.Snapshot
	Charts(ctx context.Context) model.Charts

	// Command applies START, STOP or INJECT_FAULT. Any other value fails
	// without mutating state.
	Command(ctx context.Context, cmd string) (string, error)
	PerformMaintenance(ctx context.Context) error

	FaultLog(ctx context.Context) []model.FaultEvent
	State(ctx context.Context) model.State
}

// Server wires HTTP routes for the simulator API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	kpiHandler     *KPIHandler
	controlHandler *ControlHandler
	faultsHandler  *FaultsHandler
	stream         http.Handler
}

// ServerOption configures optional routes.
type ServerOption func(*Server)

// WithStream mounts h at /api/stream.
func WithStream(h http.Handler) ServerOption {
	return func(s *Server) {
		s.stream = h
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		kpiHandler:     NewKPIHandler(deps),
		controlHandler: NewControlHandler(deps),
		faultsHandler:  NewFaultsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/kpi", MetricsMiddleware(s.kpiHandler.HandleKPI, "kpi"))
	mux.HandleFunc("/api/charts", MetricsMiddleware(s.kpiHandler.HandleCharts, "charts"))
	mux.HandleFunc("/api/control", MetricsMiddleware(s.controlHandler.HandleControl, "control"))
	mux.HandleFunc("/api/maintenance", MetricsMiddleware(s.controlHandler.HandleMaintenance, "maintenance"))
	mux.HandleFunc("/api/faults", MetricsMiddleware(s.faultsHandler.HandleFaults, "faults"))
	mux.HandleFunc("/api/state", MetricsMiddleware(s.faultsHandler.HandleState, "state"))
	if s.stream != nil {
		mux.Handle("/api/stream", s.stream)
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// allowMethod answers 405 unless r uses method.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}
