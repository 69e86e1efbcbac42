package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/rotorsim/internal/probe"
	"github.com/okian/rotorsim/pkg/logger"
)

// Default configuration constants.
const (
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", probe.DefaultBaseURL, "Base URL of the service")
		polls    = flag.Int("polls", probe.DefaultPolls, "Number of KPI polls")
		interval = flag.Duration("interval", probe.DefaultInterval, "Delay between polls")
		timeout  = flag.Duration("timeout", probe.DefaultTimeout, "HTTP request timeout")
		start    = flag.Bool("start", false, "Send START before polling")
		fault    = flag.Bool("fault", false, "Send INJECT_FAULT before polling")
		verbose  = flag.Bool("verbose", false, "Log every poll")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := &probe.Config{
		BaseURL:  *baseURL,
		Polls:    *polls,
		Interval: *interval,
		Timeout:  *timeout,
		Start:    *start,
		Fault:    *fault,
	}

	if _, err := probe.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
