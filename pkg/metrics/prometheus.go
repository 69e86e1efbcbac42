// Package metrics provides Prometheus metrics for the rotorsim service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the rotorsim service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Machine telemetry, refreshed every tick
	health     prometheus.Gauge
	temp       prometheus.Gauge
	torque     prometheus.Gauge
	vibration  prometheus.Gauge
	rpm        prometheus.Gauge
	power      prometheus.Gauge
	running    prometheus.Gauge
	stiffness  prometheus.Gauge
	historyLen prometheus.Gauge

	// Simulation lifecycle
	ticks          prometheus.Counter
	tickCrashes    prometheus.Counter
	tickDuration   prometheus.Histogram
	faultsInjected prometheus.Counter
	maintenance    prometheus.Counter
	commands       *prometheus.CounterVec
	invalidCmds    prometheus.Counter

	// Telemetry export
	exports      prometheus.Counter
	exportErrors prometheus.Counter

	// Live stream
	streamClients prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rotorsim",
		subsystem:        "turbine",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.health = m.gauge("health_score", "Current machine health score (0-100)")
	m.temp = m.gauge("temperature_celsius", "Current winding temperature")
	m.torque = m.gauge("torque_newton_meters", "Torque of the last tick")
	m.vibration = m.gauge("vibration_mm_per_second", "Vibration of the last tick")
	m.rpm = m.gauge("rpm", "Rotor speed of the last tick")
	m.power = m.gauge("power_kilowatts", "Power output of the last tick")
	m.running = m.gauge("running", "1 when the simulation is advancing, 0 otherwise")
	m.stiffness = m.gauge("bearing_stiffness_factor", "Current bearing stiffness factor")
	m.historyLen = m.gauge("history_length", "Samples held in the rolling chart window")

	m.ticks = m.counter("ticks_total", "Total number of simulation ticks that advanced the model")
	m.tickCrashes = m.counter("tick_crashes_total", "Total number of ticks that failed and crashed the simulation")
	m.tickDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "tick_duration_milliseconds",
		Help:        "Wall time of one ticker iteration in milliseconds",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50},
		ConstLabels: m.constLabels,
	})
	m.faultsInjected = m.counter("faults_injected_total", "Total number of injected bearing faults")
	m.maintenance = m.counter("maintenance_total", "Total number of maintenance resets")
	m.commands = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "commands_total",
			Help:        "Total number of accepted control commands by name",
			ConstLabels: m.constLabels,
		},
		[]string{"command"},
	)
	m.invalidCmds = m.counter("invalid_commands_total", "Total number of rejected control commands")

	m.exports = m.counter("exports_total", "Total number of snapshots exported to the register target")
	m.exportErrors = m.counter("export_errors_total", "Total number of failed snapshot exports")

	m.streamClients = m.gauge("stream_clients", "Connected live stream clients")

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_endpoint_total",
			Help:        "Total number of errors by endpoint",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// Telemetry is the subset of a snapshot mirrored into gauges.
type Telemetry struct {
	Health    float64
	Temp      float64
	Torque    float64
	Vibration float64
	RPM       int
	Power     float64
}

// UpdateTelemetry sets the machine telemetry gauges.
func UpdateTelemetry(t Telemetry) {
	globalManager.health.Set(t.Health)
	globalManager.temp.Set(t.Temp)
	globalManager.torque.Set(t.Torque)
	globalManager.vibration.Set(t.Vibration)
	globalManager.rpm.Set(float64(t.RPM))
	globalManager.power.Set(t.Power)
}

// UpdateRunning sets the running gauge.
func UpdateRunning(running bool) {
	v := 0.0
	if running {
		v = 1
	}
	globalManager.running.Set(v)
}

// UpdateStiffness sets the bearing stiffness gauge.
func UpdateStiffness(factor float64) {
	globalManager.stiffness.Set(factor)
}

// UpdateHistoryLength sets the rolling window length gauge.
func UpdateHistoryLength(n int) {
	globalManager.historyLen.Set(float64(n))
}

// RecordTick increments the tick counter.
func RecordTick() {
	globalManager.ticks.Inc()
}

// RecordTickCrash increments the crashed tick counter.
func RecordTickCrash() {
	globalManager.tickCrashes.Inc()
}

// RecordTickDuration records the wall time of one ticker iteration.
func RecordTickDuration(ms float64) {
	globalManager.tickDuration.Observe(ms)
}

// RecordFaultInjected increments the injected fault counter.
func RecordFaultInjected() {
	globalManager.faultsInjected.Inc()
}

// RecordMaintenance increments the maintenance counter.
func RecordMaintenance() {
	globalManager.maintenance.Inc()
}

// RecordCommand counts an accepted control command.
func RecordCommand(command string) {
	globalManager.commands.WithLabelValues(command).Inc()
}

// RecordInvalidCommand counts a rejected control command.
func RecordInvalidCommand() {
	globalManager.invalidCmds.Inc()
}

// RecordExport counts a successful snapshot export.
func RecordExport() {
	globalManager.exports.Inc()
}

// RecordExportError counts a failed snapshot export.
func RecordExportError() {
	globalManager.exportErrors.Inc()
}

// UpdateStreamClients sets the connected stream client gauge.
func UpdateStreamClients(n int) {
	globalManager.streamClients.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
