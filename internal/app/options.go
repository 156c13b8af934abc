package service

import (
	"time"

	"github.com/okian/fpti/internal/adapters/repository"
	"github.com/okian/fpti/pkg/logger"
)

// Option configures the Service.
type Option func(*Service)

// WithWorkerCount sets the number of classification workers.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithQueueSize sets the task queue capacity.
func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithCacheSize sets the maximum number of cached reports.
func WithCacheSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.cacheSize = n
		}
	}
}

// WithMaxBatchRecords caps the number of records accepted per batch.
// Zero disables the cap.
func WithMaxBatchRecords(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxBatchRecords = n
		}
	}
}

// WithProfileDir loads calibration profiles from dir at startup, in
// addition to the embedded default.
func WithProfileDir(dir string) Option {
	return func(s *Service) {
		s.profileDir = dir
	}
}

// WithArchivePath opens a SQLite archive at path on Start. Empty disables
// archiving.
func WithArchivePath(path string) Option {
	return func(s *Service) {
		s.archivePath = path
	}
}

// WithArchive injects a pre-built archive, bypassing WithArchivePath.
func WithArchive(a repository.Archive) Option {
	return func(s *Service) {
		s.archive = a
	}
}

// WithDefaultProfileVersion sets the profile version used when a request
// omits one.
func WithDefaultProfileVersion(version string) Option {
	return func(s *Service) {
		if version != "" {
			s.defaultProfile = version
		}
	}
}

// WithBatchRetention sets how long finished async batches stay queryable.
func WithBatchRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.batchRetention = d
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
