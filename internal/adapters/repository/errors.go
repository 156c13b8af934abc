package repository

import "errors"

// Sentinel kinds for archive errors.
var (
	ErrNotFound        = errors.New("archive entry not found")
	ErrVersionConflict = errors.New("version already published with different content")
)
