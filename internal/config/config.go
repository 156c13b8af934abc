// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - External errors are wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory classification task queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of classification workers.
	WorkerCount int `koanf:"worker_count"`

	// CacheSize bounds the in-memory report cache.
	CacheSize int `koanf:"cache_size"`

	// MaxBatchRecords caps the number of records accepted per batch.
	MaxBatchRecords int `koanf:"max_batch_records"`

	// ProfileDir optionally points at a directory of calibration profile
	// YAML files loaded at startup, alongside the embedded default.
	ProfileDir string `koanf:"profile_dir"`

	// ArchivePath is the sqlite file for version-tagged persistence of
	// profiles, populations and reports. Empty disables the archive.
	ArchivePath string `koanf:"archive_path"`

	// DefaultProfileVersion is used when a request omits the version.
	DefaultProfileVersion string `koanf:"default_profile_version"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9090",
		QueueSize:             100_000,
		WorkerCount:           runtime.NumCPU() * 2,
		CacheSize:             50_000,
		MaxBatchRecords:       5_000,
		ProfileDir:            "",
		ArchivePath:           "fpti.db",
		DefaultProfileVersion: "v1",
	}
}
