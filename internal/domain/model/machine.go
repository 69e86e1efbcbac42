// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Machine constants. These never change at runtime.
const (
	BaseTorque         = 105.0 // Nm at zero degradation, before noise
	TempLimit          = 100.0 // winding temperature safety limit, °C
	TempCeiling        = 120.0 // hard clamp for simulated temperature
	InitialTemp        = 50.0
	MaxPower           = 1000.0
	MaxCurrent         = 100.0
	MaxHealth          = 100.0
	NominalStiffness   = 1.0
	FaultStiffness     = 0.4
	FaultHealthPenalty = 20.0
	NominalRPM         = 1500

	HistoryCapacity  = 20
	FaultLogCapacity = 10
	RULHorizon       = 30
)

// Fault location tags.
const (
	FaultNone    = "None"
	FaultOffline = "Offline"
	FaultBearing = "High-Speed Bearing"
	FaultCrashed = "SIMULATION CRASHED"
)

// Status is the operator-facing condition derived from health.
type Status string

// Status values.
const (
	StatusOffline Status = "Offline"
	StatusHealthy Status = "healthy"
	StatusWarning Status = "warning"
	StatusAlert   Status = "alert"
)

// Health thresholds for status derivation.
const (
	alertBelow   = 50.0
	warningBelow = 80.0
)

// StatusFor derives the status of a running machine from its health.
func StatusFor(health float64) Status {
	switch {
	case health < alertBelow:
		return StatusAlert
	case health < warningBelow:
		return StatusWarning
	default:
		return StatusHealthy
	}
}

// Code maps a status to a small integer for register-based exports.
func (s Status) Code() uint16 {
	switch s {
	case StatusHealthy:
		return 1
	case StatusWarning:
		return 2
	case StatusAlert:
		return 3
	default:
		return 0
	}
}

// Sample is one point of the rolling chart history.
type Sample struct {
	Torque float64 `json:"torque"`
	Temp   float64 `json:"temp"`
}

// Snapshot is the KPI view of the machine produced by one tick.
type Snapshot struct {
	RPM           int     `json:"rpm"`
	Power         float64 `json:"power"`
	Current       float64 `json:"current"`
	Health        float64 `json:"health"`
	Temp          float64 `json:"temp"`
	Torque        float64 `json:"torque"`
	Vibration     float64 `json:"vibration"`
	Status        Status  `json:"status"`
	FaultLocation string  `json:"fault_location"`
}

// Charts is the chart payload: rolling histories and the RUL projection.
type Charts struct {
	TorqueHistory []float64 `json:"torque_history"`
	TempHistory   []float64 `json:"temp_history"`
	RULProjection []float64 `json:"rul_projection"`
}

// State is a copy of the full machine state, used for operator views and
// before/after comparisons.
type State struct {
	Running       bool     `json:"is_running"`
	Health        float64  `json:"health_score"`
	Stiffness     float64  `json:"bearing_stiffness_factor"`
	Temp          float64  `json:"current_temp"`
	FaultLocation string   `json:"fault_location"`
	History       []Sample `json:"history"`
	FaultLog      []string `json:"fault_log"`
	Ticks         uint64   `json:"ticks"`
}

// FaultEvent is one entry of the operator fault narrative.
type FaultEvent struct {
	ID      uuid.UUID
	At      time.Time
	Message string
}

// NewFaultEvent stamps message with a fresh id and the given time.
func NewFaultEvent(at time.Time, message string) FaultEvent {
	return FaultEvent{ID: uuid.New(), At: at, Message: message}
}

// String renders the event as "[HH:MM:SS] message".
func (e FaultEvent) String() string {
	return fmt.Sprintf("[%s] %s", e.At.Format(time.TimeOnly), e.Message)
}
