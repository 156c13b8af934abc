package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/fpti/internal/loadtool"
)

// Default configuration constants.
const (
	defaultNumPlayers       = 10000
	defaultBatchSize        = 500
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	defaultTimeout          = 30 * time.Second
	defaultTestTimeout      = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9090", "Base URL of the service")
		numPlayers = flag.Int("players", defaultNumPlayers, "Number of player records to generate")
		batchSize  = flag.Int("batch", defaultBatchSize, "Records per classification request")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkerMultiplier, "Number of concurrent workers")
		profile    = flag.String("profile", "v1", "Calibration profile version")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for generated records (optional)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtool.ShowHelp()
		return
	}

	if err := loadtool.SetupLogging(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &loadtool.Config{
		BaseURL:        *baseURL,
		NumPlayers:     *numPlayers,
		BatchSize:      *batchSize,
		Workers:        *workers,
		Timeout:        *timeout,
		ProfileVersion: *profile,
		OutputFile:     *outputFile,
		Verbose:        *verbose,
	}

	if err := loadtool.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load test failed: " + err.Error() + "\n")
		return
	}
}
