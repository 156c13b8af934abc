// Package loadtool generates synthetic player records and drives the
// classification API under concurrent load.
package loadtool

import (
	"fmt"
	"os"

	"github.com/okian/fpti/pkg/logger"
)

// SetupLogging initializes the structured logger for the tool.
func SetupLogging() error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`FPTI Classification Load Tool
=============================

A concurrent tool for load-testing the archetype classification service.

Usage:
  go run cmd/load-test/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9090")
  -players int
        Number of player records to generate (default 10000)
  -batch int
        Records per classification request (default 500)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -profile string
        Calibration profile version (default "v1")
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated records (optional)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/load-test/main.go

  # Test with custom parameters
  go run cmd/load-test/main.go -players 50000 -batch 1000 -workers 16

  # Keep generated records for replay
  go run cmd/load-test/main.go -players 5000 -output records.json
`)
}
