// Package modbus exports simulation snapshots into holding registers of a
// Modbus TCP server, the way a SCADA historian would read a real turbine.
package modbus

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/okian/rotorsim/internal/domain/model"
	"github.com/okian/rotorsim/pkg/logger"
	"github.com/okian/rotorsim/pkg/metrics"
)

// Sentinel error kinds for this package.
var (
	ErrEndpointRequired = errors.New("modbus exporter: endpoint required")
	ErrInvalidUnitID    = errors.New("modbus exporter: unit id out of range")
)

// Register layout, offsets from the base address.
const (
	RegRPM = iota
	RegPower
	RegCurrent
	RegHealth
	RegTemp
	RegTorque
	RegVibration
	RegStatus
	RegFault
	RegisterCount
)

// Fixed-point scales per register.
const (
	scaleTenths      = 10
	scaleHundredths  = 100
	maxUnitID        = 247
	defaultTimeout   = time.Second
	registerMaxValue = math.MaxUint16
)

// Client is the part of a Modbus client the exporter needs.
type Client interface {
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// Config describes the register target.
type Config struct {
	Endpoint    string
	UnitID      uint8
	BaseAddress uint16
	Timeout     time.Duration
}

// Exporter writes snapshots to a register block. It serializes writes.
type Exporter struct {
	mu      sync.Mutex
	client  Client
	closer  func() error
	base    uint16
	logger  logger.Logger
	written uint64
}

// Dial connects to cfg.Endpoint and returns an exporter bound to it.
func Dial(cfg Config) (*Exporter, error) {
	if cfg.Endpoint == "" {
		return nil, ErrEndpointRequired
	}
	if cfg.UnitID == 0 || cfg.UnitID > maxUnitID {
		return nil, fmt.Errorf("%w: %d", ErrInvalidUnitID, cfg.UnitID)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("modbus exporter: connect %s: %w", cfg.Endpoint, err)
	}

	e := New(modbus.NewClient(h), cfg.BaseAddress)
	e.closer = h.Close
	e.logger.Info(context.Background(), "modbus exporter connected",
		logger.String("endpoint", cfg.Endpoint),
		logger.Int("unit_id", int(cfg.UnitID)),
		logger.Int("base_address", int(cfg.BaseAddress)),
	)
	return e, nil
}

// New wraps an existing client.
func New(client Client, baseAddress uint16) *Exporter {
	return &Exporter{
		client: client,
		base:   baseAddress,
		logger: logger.Get().Named("modbus"),
	}
}

// Export writes snap into the register block.
func (e *Exporter) Export(ctx context.Context, snap model.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload := packRegisters(Encode(snap))

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.client.WriteMultipleRegisters(e.base, RegisterCount, payload); err != nil {
		metrics.RecordExportError()
		return fmt.Errorf("modbus exporter: write registers at %d: %w", e.base, err)
	}
	e.written++
	metrics.RecordExport()
	e.logger.Debug(ctx, "snapshot exported", logger.Uint64("written", e.written))
	return nil
}

// Close releases the underlying connection, if any.
func (e *Exporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closer == nil {
		return nil
	}
	return e.closer()
}

// Encode maps a snapshot onto the register layout.
func Encode(snap model.Snapshot) []uint16 {
	regs := make([]uint16, RegisterCount)
	regs[RegRPM] = clamp(float64(snap.RPM))
	regs[RegPower] = clamp(snap.Power * scaleTenths)
	regs[RegCurrent] = clamp(snap.Current * scaleTenths)
	regs[RegHealth] = clamp(snap.Health * scaleHundredths)
	regs[RegTemp] = clamp(snap.Temp * scaleTenths)
	regs[RegTorque] = clamp(snap.Torque * scaleTenths)
	regs[RegVibration] = clamp(snap.Vibration * scaleHundredths)
	regs[RegStatus] = snap.Status.Code()
	regs[RegFault] = faultCode(snap.FaultLocation)
	return regs
}

func faultCode(location string) uint16 {
	switch location {
	case model.FaultOffline:
		return 1
	case model.FaultBearing:
		return 2
	case model.FaultCrashed:
		return 3
	default:
		return 0
	}
}

func clamp(v float64) uint16 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= registerMaxValue:
		return registerMaxValue
	default:
		return uint16(math.Round(v))
	}
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
