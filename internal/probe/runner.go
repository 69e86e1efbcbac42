package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rotorsim/internal/domain/model"
	"github.com/okian/rotorsim/pkg/logger"
)

type controlRequest struct {
	Command string `json:"command"`
}

// Run executes a probe session and returns its report. A non-nil report is
// returned whenever polling took place, even if invariants failed.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	applyDefaults(cfg)

	report := &Report{
		Session:   uuid.NewString(),
		StartTime: time.Now(),
	}
	log := logger.Get().Named("probe").With(logger.String("session", report.Session))
	c := newClient(cfg.BaseURL, report.Session, cfg.Timeout)

	log.Info(ctx, "starting probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("polls", cfg.Polls),
		logger.Duration("interval", cfg.Interval),
	)

	// Step 1: Check service health
	var health map[string]string
	if err := c.getJSON(ctx, "/healthz", &health); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if health["status"] != "ok" {
		return nil, fmt.Errorf("%w: status %q", ErrUnhealthy, health["status"])
	}

	// Step 2: Optional commands
	if cfg.Start {
		if err := c.postJSON(ctx, "/api/control", controlRequest{Command: "START"}, nil); err != nil {
			return nil, fmt.Errorf("start simulation: %w", err)
		}
	}
	if cfg.Fault {
		if err := c.postJSON(ctx, "/api/control", controlRequest{Command: "INJECT_FAULT"}, nil); err != nil {
			return nil, fmt.Errorf("inject fault: %w", err)
		}
	}

	// Step 3: Poll like the dashboard and check each response
	var prev *model.Snapshot
	for i := 0; i < cfg.Polls; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(cfg.Interval):
			}
		}

		var snap model.Snapshot
		if err := c.getJSON(ctx, "/api/kpi", &snap); err != nil {
			return report, err
		}
		var charts model.Charts
		if err := c.getJSON(ctx, "/api/charts", &charts); err != nil {
			return report, err
		}

		violations := append(checkSnapshot(prev, snap), checkCharts(charts)...)
		for _, v := range violations {
			log.Warn(ctx, "invariant violated", logger.Int("poll", i), logger.String("detail", v))
		}
		report.Violations = append(report.Violations, violations...)

		if i == 0 {
			report.FirstHealth = snap.Health
		}
		report.LastHealth = snap.Health
		report.Polls++
		log.Debug(ctx, "poll",
			logger.Int("poll", i),
			logger.Float64("health", snap.Health),
			logger.String("status", string(snap.Status)),
		)
		prev = &snap
	}

	report.Duration = time.Since(report.StartTime)
	log.Info(ctx, "probe finished",
		logger.Int("polls", report.Polls),
		logger.Int("violations", len(report.Violations)),
		logger.Float64("firstHealth", report.FirstHealth),
		logger.Float64("lastHealth", report.LastHealth),
		logger.Duration("duration", report.Duration),
	)

	if !report.OK() {
		return report, fmt.Errorf("%w: %d", ErrInvariantsViolated, len(report.Violations))
	}
	return report, nil
}

func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Polls <= 0 {
		cfg.Polls = DefaultPolls
	}
	if cfg.Interval < 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
}
