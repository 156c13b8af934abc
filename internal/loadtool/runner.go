package loadtool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/okian/fpti/pkg/logger"
)

// File permission constants.
const (
	outputFilePermission = 0600
)

// Run executes the complete classification load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime:       time.Now(),
		VerdictCounts:   make(map[string]int),
		ArchetypeCounts: make(map[string]int),
	}

	logger.Get().Info(ctx, "starting classification load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("players", config.NumPlayers),
		logger.Int("batchSize", config.BatchSize),
		logger.Int("workers", config.Workers),
		logger.String("profileVersion", config.ProfileVersion),
		logger.String("timeout", config.Timeout.String()))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Verify the profile version exists
	if err := checkProfile(ctx, config); err != nil {
		return fmt.Errorf("profile check failed: %w", err)
	}

	// Step 3: Generate records
	records := generateRecords(ctx, config, stats)

	// Step 4: Submit batches concurrently
	if err := submitBatches(ctx, config, records, stats); err != nil {
		return fmt.Errorf("batch submission failed: %w", err)
	}

	// Step 5: Save records to file
	if config.OutputFile != "" {
		if err := saveRecordsToFile(ctx, config, records); err != nil {
			logger.Get().Warn(ctx, "failed to save records to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "load test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()

	// Any 200 counts as healthy; the endpoint serves Prometheus metrics.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// checkProfile verifies the configured profile version is published.
func checkProfile(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/profiles/"+config.ProfileVersion)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("profile %s not available, status: %d", config.ProfileVersion, resp.StatusCode)
	}
	logger.Get().Info(ctx, "profile available", logger.String("version", config.ProfileVersion))
	return nil
}

// saveRecordsToFile saves the generated records to a JSON file.
func saveRecordsToFile(ctx context.Context, config *Config, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := os.WriteFile(config.OutputFile, data, outputFilePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "records saved to file", logger.String("filename", config.OutputFile))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var reportsPerSecond float64
	if stats.Duration > 0 {
		reportsPerSecond = float64(stats.ReportsReceived) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("playersGenerated", stats.PlayersGenerated),
		logger.Int("batchesSubmitted", stats.BatchesSubmitted),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Int("reportsReceived", stats.ReportsReceived),
		logger.Any("verdicts", stats.VerdictCounts),
		logger.Any("archetypes", stats.ArchetypeCounts),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("reportsPerSecond", reportsPerSecond))
}
