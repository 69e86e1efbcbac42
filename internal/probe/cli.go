package probe

import "os"

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	os.Stdout.WriteString(`rotorsim probe
==============

Polls a running simulator like the dashboard does and checks the
degradation invariants on every response.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:5000")
  -polls int
        Number of KPI polls (default 30)
  -interval duration
        Delay between polls (default 1s)
  -timeout duration
        HTTP request timeout (default 5s)
  -start
        Send START before polling
  -fault
        Send INJECT_FAULT before polling
  -verbose
        Log every poll
  -help
        Show this help message

Examples:
  # Start the simulation and watch it for a minute
  go run ./cmd/probe -start -polls 60

  # Check a faulted turbine quickly
  go run ./cmd/probe -start -fault -polls 10 -interval 100ms
`)
}
