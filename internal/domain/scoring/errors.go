package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	// ErrAxisUnscoreable marks a per-axis, recoverable condition: the axis
	// letter becomes indeterminate, the classification itself proceeds.
	ErrAxisUnscoreable = errors.New("axis unscoreable")
)
