package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/rotorsim/internal/adapters/http/api"
	"github.com/okian/rotorsim/internal/adapters/http/swagger"
	"github.com/okian/rotorsim/internal/adapters/http/ws"
	"github.com/okian/rotorsim/internal/adapters/modbus"
	app "github.com/okian/rotorsim/internal/app"
	"github.com/okian/rotorsim/internal/config"
	"github.com/okian/rotorsim/pkg/logger"
	"github.com/okian/rotorsim/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "rotorsim exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	loggerInstance := logger.Get()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	applyLogLevel(ctx, cfg.LogLevel)

	opts := []app.Option{
		app.WithLogger(loggerInstance.Named("service")),
		app.WithTickInterval(cfg.TickInterval()),
		app.WithSeed(cfg.Seed),
	}
	if cfg.ModbusEnabled() {
		exp, err := modbus.Dial(modbus.Config{
			Endpoint:    cfg.ModbusEndpoint,
			UnitID:      uint8(cfg.ModbusUnitID),       //nolint:gosec // validated 1..247
			BaseAddress: uint16(cfg.ModbusBaseAddress), //nolint:gosec // validated 0..65535
			Timeout:     cfg.ModbusTimeout(),
		})
		if err != nil {
			// The simulator is still useful without the register target.
			loggerInstance.Warn(ctx, "modbus export disabled", logger.Error(err))
		} else {
			opts = append(opts, app.WithExporter(exp))
		}
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(context.Background()); err != nil {
			loggerInstance.Warn(ctx, "service stop failed", logger.Error(err))
		}
	}()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	hub := ws.New(svc, cfg.StreamInterval(), cfg.CORSOrigin)
	go hub.Run(ctx)

	if path := os.Getenv(config.EnvConfigPath); path != "" {
		go func() {
			if err := config.Watch(ctx, path, func(c *config.Config) { applyLogLevel(ctx, c.LogLevel) }); err != nil {
				loggerInstance.Warn(ctx, "config watch stopped", logger.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, hub),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	errCh := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
	return nil
}

// newHandler wires every route behind CORS.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, stream http.Handler) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	apiServer := api.NewServer(svc, svc, api.WithStream(stream))
	apiServer.Register(ctx, mux)
	return api.CORSMiddleware(cfg.CORSOrigin, mux)
}

// applyLogLevel sets the level, falling back to info on invalid input.
func applyLogLevel(ctx context.Context, level string) {
	if err := logger.SetLevelString(level); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
