package degradation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/rotorsim/internal/domain/model"
	"github.com/okian/rotorsim/internal/domain/ring"
)

// Per-tick coefficients.
const (
	healthLossPerTick = 0.05
	torqueNoiseSpan   = 5.0
	torqueDegradeGain = 40.0
	tempDegradeGain   = 0.5
	tempCooling       = 0.1
	vibrationBase     = 2.0
	vibrationGain     = 6.0
	rpmJitter         = 50
	outputDerating    = 0.9
	rulLossPerStep    = 2.0
	wearThreshold     = 80.0
	pcgStream         = 0x9e3779b97f4a7c15
)

// Fault log messages.
const (
	msgEarlyWear   = "Early bearing wear detected → torque fluctuation increasing"
	msgFaultActive = "Fault active at %s → vibration increased"
	msgInjected    = "Catastrophic bearing fault injected → rapid health drop"
	msgStarted     = "Simulation started"
	msgStopped     = "Simulation stopped"
	msgMaintenance = "Maintenance performed → health restored to 100%"
	msgCrashed     = "Simulation crashed: %s"
)

// Source supplies the noise terms of the model.
// Float64 returns a value in [0,1); IntN returns a value in [0,n).
type Source interface {
	Float64() float64
	IntN(n int) int
}

// Model owns one machine state. Every exported method holds the model lock
// for its whole duration, so Model is safe for concurrent use.
type Model struct {
	mu sync.Mutex

	running       bool
	health        float64
	stiffness     float64
	temp          float64
	faultLocation string
	wearLogged    bool
	ticks         uint64

	history *ring.Buffer[model.Sample]
	faults  *ring.Buffer[model.FaultEvent]
	last    *model.Snapshot

	rng Source
	now func() time.Time
}

// New creates a stopped machine in pristine condition.
func New(opts ...Option) *Model {
	seed := uint64(time.Now().UnixNano()) //nolint:gosec // seed only
	m := &Model{
		health:        model.MaxHealth,
		stiffness:     model.NominalStiffness,
		temp:          model.InitialTemp,
		faultLocation: model.FaultNone,
		history:       ring.New[model.Sample](model.HistoryCapacity),
		faults:        ring.New[model.FaultEvent](model.FaultLogCapacity),
		rng:           rand.New(rand.NewPCG(seed, seed^pcgStream)), //nolint:gosec // simulation noise
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Step advances the simulation by one tick and returns the resulting
// snapshot. A stopped machine is not advanced; the offline snapshot is
// returned instead.
func (m *Model) Step() model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return m.offlineLocked()
	}

	m.health = math.Max(0, m.health-m.stiffness*healthLossPerTick)
	degradation := (model.MaxHealth - m.health) / model.MaxHealth

	torque := model.BaseTorque + m.rng.Float64()*torqueNoiseSpan + degradation*torqueDegradeGain
	m.temp = math.Min(model.TempCeiling, m.temp+degradation*tempDegradeGain-tempCooling)
	vibration := vibrationBase + degradation*vibrationGain + m.rng.Float64()

	if m.health < wearThreshold && m.faultLocation == model.FaultNone && !m.wearLogged {
		m.logLocked(msgEarlyWear)
		m.wearLogged = true
	}
	if m.faultLocation != model.FaultNone {
		m.logfLocked(msgFaultActive, m.faultLocation)
	}

	rpm := model.NominalRPM + m.rng.IntN(2*rpmJitter) - rpmJitter

	m.history.Push(model.Sample{Torque: torque, Temp: m.temp})
	m.ticks++

	snap := m.runningSnapshotLocked(rpm, torque, vibration)
	m.last = &snap
	return snap
}

// Peek returns the latest snapshot without advancing the simulation.
func (m *Model) Peek() model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return m.offlineLocked()
	}
	if m.last != nil {
		return *m.last
	}

	degradation := (model.MaxHealth - m.health) / model.MaxHealth
	return m.runningSnapshotLocked(
		model.NominalRPM,
		model.BaseTorque+degradation*torqueDegradeGain,
		vibrationBase+degradation*vibrationGain,
	)
}

// InjectFault simulates a catastrophic bearing fault. The stiffness factor
// drops to the fault value and health takes a one-off penalty, floored at 0.
func (m *Model) InjectFault() {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A lower factor slows the per-tick loss; the penalty is the only
	// acceleration. Kept as observed.
	m.stiffness = model.FaultStiffness
	m.health = math.Max(0, m.health-model.FaultHealthPenalty)
	m.faultLocation = model.FaultBearing
	m.logLocked(msgInjected)
}

// Start resumes ticking. Health, temperature and stiffness are kept.
func (m *Model) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running = true
	m.faultLocation = model.FaultNone
	m.last = nil
	m.logLocked(msgStarted)
}

// Stop halts ticking and marks the machine offline.
func (m *Model) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running = false
	m.faultLocation = model.FaultOffline
	m.logLocked(msgStopped)
}

// Crash forces the stopped state with the crash marker.
func (m *Model) Crash(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running = false
	m.faultLocation = model.FaultCrashed
	m.logfLocked(msgCrashed, reason)
}

// Maintenance restores the machine to pristine condition. The running flag
// is left as is.
func (m *Model) Maintenance() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.health = model.MaxHealth
	m.stiffness = model.NominalStiffness
	m.temp = model.InitialTemp
	m.faultLocation = model.FaultNone
	m.wearLogged = false
	m.last = nil
	m.history.Reset()
	m.faults.Reset()
	m.logLocked(msgMaintenance)
}

// RULProjection returns the linear remaining-useful-life projection over
// model.RULHorizon steps, clamped at 0.
func (m *Model) RULProjection() []float64 {
	m.mu.Lock()
	health, stiffness := m.health, m.stiffness
	m.mu.Unlock()

	out := make([]float64, model.RULHorizon)
	for i := range out {
		out[i] = math.Max(0, health-float64(i)*rulLossPerStep*stiffness)
	}
	return out
}

// History returns the rolling samples, oldest first.
func (m *Model) History() []model.Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.Slice()
}

// FaultLog returns the fault narrative, oldest first.
func (m *Model) FaultLog() []model.FaultEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.faults.Slice()
}

// Running reports whether the simulation is advancing.
func (m *Model) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// State returns a copy of the full machine state.
func (m *Model) State() model.State {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := m.faults.Slice()
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = e.String()
	}

	return model.State{
		Running:       m.running,
		Health:        m.health,
		Stiffness:     m.stiffness,
		Temp:          m.temp,
		FaultLocation: m.faultLocation,
		History:       m.history.Slice(),
		FaultLog:      lines,
		Ticks:         m.ticks,
	}
}

func (m *Model) offlineLocked() model.Snapshot {
	return model.Snapshot{
		Health:        m.health,
		Temp:          m.temp,
		Torque:        model.BaseTorque,
		Status:        model.StatusOffline,
		FaultLocation: m.faultLocation,
	}
}

func (m *Model) runningSnapshotLocked(rpm int, torque, vibration float64) model.Snapshot {
	efficiency := m.health / model.MaxHealth
	return model.Snapshot{
		RPM:           rpm,
		Power:         model.MaxPower * efficiency * outputDerating,
		Current:       model.MaxCurrent * efficiency * outputDerating,
		Health:        m.health,
		Temp:          m.temp,
		Torque:        torque,
		Vibration:     vibration,
		Status:        model.StatusFor(m.health),
		FaultLocation: m.faultLocation,
	}
}

func (m *Model) logLocked(msg string) {
	m.faults.Push(model.NewFaultEvent(m.now(), msg))
}

func (m *Model) logfLocked(format string, args ...any) {
	m.logLocked(fmt.Sprintf(format, args...))
}
