// Package service provides the core simulation service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/okian/rotorsim/internal/adapters/worker"
	"github.com/okian/rotorsim/internal/domain/degradation"
	"github.com/okian/rotorsim/internal/domain/model"
	"github.com/okian/rotorsim/pkg/logger"
	"github.com/okian/rotorsim/pkg/metrics"
)

// Control commands accepted by Command.
const (
	CommandStart       = "START"
	CommandStop        = "STOP"
	CommandInjectFault = "INJECT_FAULT"
)

// Operator-facing acknowledgement messages.
const (
	MsgStarted     = "Simulation started."
	MsgStopped     = "Simulation stopped."
	MsgInjected    = "Catastrophic fault injected."
	MsgMaintenance = "Maintenance successfully performed. Health restored to 100%."
)

const (
	defaultTickInterval = time.Second
	shutdownTimeout     = 5 * time.Second
)

// Machine is the simulation the service drives.
type Machine interface {
	Step() model.Snapshot
	Peek() model.Snapshot
	InjectFault()
	Start()
	Stop()
	Crash(reason string)
	Maintenance()
	RULProjection() []float64
	History() []model.Sample
	FaultLog() []model.FaultEvent
	State() model.State
}

// Exporter receives each ticked snapshot.
type Exporter interface {
	Export(ctx context.Context, snap model.Snapshot) error
	Close() error
}

// Service implements the API dependencies for the turbine simulator.
type Service struct {
	mu sync.RWMutex

	// Core components
	machine  Machine
	exporter Exporter
	ticker   *worker.Ticker

	// Configuration
	tickInterval time.Duration
	seed         uint64

	// State
	started bool
	cancel  context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTickInterval sets the background tick cadence.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithModel replaces the default degradation model.
func WithModel(m Machine) Option {
	return func(s *Service) {
		if m != nil {
			s.machine = m
		}
	}
}

// WithExporter forwards every ticked snapshot to e.
func WithExporter(e Exporter) Option {
	return func(s *Service) {
		if e != nil {
			s.exporter = e
		}
	}
}

// WithSeed seeds the default model's noise source. Zero keeps the
// time-based seed. Ignored when WithModel is given.
func WithSeed(seed uint64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		tickInterval: defaultTickInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.machine == nil {
		var mopts []degradation.Option
		if s.seed != 0 {
			mopts = append(mopts, degradation.WithSeed(s.seed))
		}
		s.machine = degradation.New(mopts...)
	}

	return s
}

// Start launches the background ticker. Calling it twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting simulation service...")

	t, err := worker.NewTicker(
		worker.StepperFunc(s.tick),
		worker.WithInterval(s.tickInterval),
		worker.WithCrasher(crasher{s}),
		worker.WithLogger(s.logger.Named("ticker")),
	)
	if err != nil {
		return fmt.Errorf("create ticker: %w", err)
	}

	// The ticker outlives the start request.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	go t.Run(runCtx)

	s.ticker = t
	s.cancel = cancel
	s.started = true

	s.logger.Info(ctx, "simulation service started",
		logger.Duration("tickInterval", s.tickInterval),
		logger.Bool("exporter", s.exporter != nil),
	)

	return nil
}

// Stop shuts the ticker down and releases the exporter.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}

	s.logger.Info(ctx, "stopping simulation service...")

	sctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	err := s.ticker.Shutdown(sctx)
	s.cancel()

	if s.exporter != nil {
		if cerr := s.exporter.Close(); cerr != nil {
			s.logger.Warn(ctx, "exporter close failed", logger.Error(cerr))
		}
	}

	s.started = false
	s.ticker = nil
	s.logger.Info(ctx, "simulation service stopped")

	return err
}

// tick is the background step. A non-finite snapshot is reported as an
// error so the ticker forces the crashed state.
func (s *Service) tick(ctx context.Context) error {
	snap := s.machine.Step()
	if snap.Status == model.StatusOffline {
		return nil
	}
	if err := checkFinite(snap); err != nil {
		return err
	}

	metrics.RecordTick()
	s.observe(snap)
	s.logger.Debug(ctx, "tick",
		logger.Float64("health", snap.Health),
		logger.Float64("temp", snap.Temp),
		logger.Int("rpm", snap.RPM),
	)

	if s.exporter != nil {
		if err := s.exporter.Export(ctx, snap); err != nil {
			s.logger.Warn(ctx, "snapshot export failed", logger.Error(err))
		}
	}
	return nil
}

func (s *Service) observe(snap model.Snapshot) {
	st := s.machine.State()
	metrics.UpdateTelemetry(metrics.Telemetry{
		Health:    snap.Health,
		Temp:      snap.Temp,
		Torque:    snap.Torque,
		Vibration: snap.Vibration,
		RPM:       snap.RPM,
		Power:     snap.Power,
	})
	metrics.UpdateRunning(st.Running)
	metrics.UpdateStiffness(st.Stiffness)
	metrics.UpdateHistoryLength(len(st.History))
}

func checkFinite(snap model.Snapshot) error {
	for name, v := range map[string]float64{
		"power":     snap.Power,
		"current":   snap.Current,
		"health":    snap.Health,
		"temp":      snap.Temp,
		"torque":    snap.Torque,
		"vibration": snap.Vibration,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s=%v", ErrNonFinite, name, v)
		}
	}
	return nil
}

type crasher struct{ s *Service }

func (c crasher) Crash(ctx context.Context, reason string) {
	c.s.machine.Crash(reason)
	metrics.UpdateRunning(false)
	c.s.logger.Warn(ctx, "simulation crashed", logger.String("reason", reason))
}

// Snapshot advances the simulation by one step and returns the KPI view.
func (s *Service) Snapshot(ctx context.Context) model.Snapshot {
	snap := s.machine.Step()
	if snap.Status != model.StatusOffline {
		metrics.RecordTick()
		s.observe(snap)
	}
	return snap
}

// Peek returns the latest snapshot without advancing the simulation.
func (s *Service) Peek(ctx context.Context) model.Snapshot {
	return s.machine.Peek()
}

// Charts returns the rolling histories and the RUL projection. Slices are
// never nil.
func (s *Service) Charts(ctx context.Context) model.Charts {
	history := s.machine.History()
	c := model.Charts{
		TorqueHistory: make([]float64, len(history)),
		TempHistory:   make([]float64, len(history)),
		RULProjection: s.machine.RULProjection(),
	}
	for i, h := range history {
		c.TorqueHistory[i] = h.Torque
		c.TempHistory[i] = h.Temp
	}
	return c
}

// StartSimulation resumes ticking.
func (s *Service) StartSimulation(ctx context.Context) {
	s.machine.Start()
	metrics.UpdateRunning(true)
	s.logger.Info(ctx, "simulation started")
}

// StopSimulation halts ticking.
func (s *Service) StopSimulation(ctx context.Context) {
	s.machine.Stop()
	metrics.UpdateRunning(false)
	s.logger.Info(ctx, "simulation stopped")
}

// InjectFault injects a catastrophic bearing fault.
func (s *Service) InjectFault(ctx context.Context) {
	s.machine.InjectFault()
	metrics.RecordFaultInjected()
	s.logger.Warn(ctx, "bearing fault injected", logger.Float64("health", s.machine.State().Health))
}

// PerformMaintenance stops the simulation and restores the machine. A
// failure inside the model is returned, not propagated as a panic.
func (s *Service) PerformMaintenance(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrMaintenance, rec)
			s.logger.Error(ctx, "maintenance failed", logger.Error(err))
		}
	}()

	s.machine.Stop()
	s.machine.Maintenance()
	metrics.UpdateRunning(false)
	metrics.RecordMaintenance()
	metrics.UpdateHistoryLength(0)
	metrics.UpdateStiffness(model.NominalStiffness)
	s.logger.Info(ctx, "maintenance performed")
	return nil
}

// Command applies a control command and returns its acknowledgement.
// Unknown commands return ErrInvalidCommand and change nothing.
func (s *Service) Command(ctx context.Context, cmd string) (string, error) {
	switch cmd {
	case CommandStart:
		s.StartSimulation(ctx)
		metrics.RecordCommand(cmd)
		return MsgStarted, nil
	case CommandStop:
		s.StopSimulation(ctx)
		metrics.RecordCommand(cmd)
		return MsgStopped, nil
	case CommandInjectFault:
		s.InjectFault(ctx)
		metrics.RecordCommand(cmd)
		return MsgInjected, nil
	default:
		metrics.RecordInvalidCommand()
		s.logger.Debug(ctx, "rejected control command", logger.String("command", cmd))
		return "", fmt.Errorf("%w: %q", ErrInvalidCommand, cmd)
	}
}

// FaultLog returns the fault narrative, oldest first.
func (s *Service) FaultLog(ctx context.Context) []model.FaultEvent {
	return s.machine.FaultLog()
}

// State returns a copy of the full machine state.
func (s *Service) State(ctx context.Context) model.State {
	return s.machine.State()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	st := s.machine.State()
	return map[string]interface{}{
		"started":       started,
		"running":       st.Running,
		"ticks":         st.Ticks,
		"health":        st.Health,
		"faultLocation": st.FaultLocation,
		"tickInterval":  s.tickInterval.String(),
		"exporter":      s.exporter != nil,
	}
}
