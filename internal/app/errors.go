package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted         = errors.New("service not started")
	ErrBatchNotFound      = errors.New("batch not found")
	ErrBatchTooLarge      = errors.New("batch exceeds max records")
	ErrNoRecords          = errors.New("batch has no records")
	ErrBackpressure       = errors.New("task queue full")
	ErrPopulationNotFound = errors.New("population not found")
	ErrPopulationConflict = errors.New("population tag already published with different content")
	ErrArchiveDisabled    = errors.New("archive not configured")
)
