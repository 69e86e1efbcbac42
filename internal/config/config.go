// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Durations are configured in milliseconds and exposed as time.Duration.
// - External errors must be wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"time"
)

const (
	maxUnitID      = 247
	maxBaseAddress = 65535
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. "0.0.0.0:5000".
	Addr string `koanf:"addr"`

	// TickIntervalMS is the background simulation cadence.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// StreamIntervalMS is the live stream broadcast cadence.
	StreamIntervalMS int `koanf:"stream_interval_ms"`

	// CORSOrigin is sent as Access-Control-Allow-Origin.
	CORSOrigin string `koanf:"cors_origin"`

	// Seed fixes the noise source; 0 seeds from the clock.
	Seed uint64 `koanf:"seed"`

	// ModbusEndpoint is the host:port of the register target. Empty
	// disables export.
	ModbusEndpoint    string `koanf:"modbus_endpoint"`
	ModbusUnitID      int    `koanf:"modbus_unit_id"`
	ModbusBaseAddress int    `koanf:"modbus_base_address"`
	ModbusTimeoutMS   int    `koanf:"modbus_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              "0.0.0.0:5000",
		TickIntervalMS:    1000,
		StreamIntervalMS:  1000,
		CORSOrigin:        "*",
		ModbusUnitID:      1,
		ModbusBaseAddress: 0,
		ModbusTimeoutMS:   1000,
	}
}

// TickInterval returns TickIntervalMS as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// StreamInterval returns StreamIntervalMS as a duration.
func (c *Config) StreamInterval() time.Duration {
	return time.Duration(c.StreamIntervalMS) * time.Millisecond
}

// ModbusTimeout returns ModbusTimeoutMS as a duration.
func (c *Config) ModbusTimeout() time.Duration {
	return time.Duration(c.ModbusTimeoutMS) * time.Millisecond
}

// ModbusEnabled reports whether snapshot export is configured.
func (c *Config) ModbusEnabled() bool {
	return c.ModbusEndpoint != ""
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TickIntervalMS <= 0:
		return fmt.Errorf("%w: tick_interval_ms must be positive, got %d", ErrInvalidConfig, c.TickIntervalMS)
	case c.StreamIntervalMS <= 0:
		return fmt.Errorf("%w: stream_interval_ms must be positive, got %d", ErrInvalidConfig, c.StreamIntervalMS)
	case c.ModbusUnitID < 1 || c.ModbusUnitID > maxUnitID:
		return fmt.Errorf("%w: modbus_unit_id must be in 1..%d, got %d", ErrInvalidConfig, maxUnitID, c.ModbusUnitID)
	case c.ModbusBaseAddress < 0 || c.ModbusBaseAddress > maxBaseAddress:
		return fmt.Errorf("%w: modbus_base_address must be in 0..%d, got %d", ErrInvalidConfig, maxBaseAddress, c.ModbusBaseAddress)
	case c.ModbusTimeoutMS <= 0:
		return fmt.Errorf("%w: modbus_timeout_ms must be positive, got %d", ErrInvalidConfig, c.ModbusTimeoutMS)
	}
	return nil
}
