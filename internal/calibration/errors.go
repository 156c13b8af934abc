package calibration

import "errors"

// Sentinel kinds for calibration errors. Both ErrProfileNotFound and
// ErrProfileInvalid are structural: a batch cannot proceed past them.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileInvalid  = errors.New("profile invalid")
	ErrProfileConflict = errors.New("profile version already published with different content")
)
