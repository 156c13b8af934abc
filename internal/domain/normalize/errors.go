package normalize

import "errors"

// Sentinel kinds for normalization errors. Both are per-player recoverable:
// the pipeline turns them into ineligible reports, never batch failures.
var (
	ErrInsufficientMinutes = errors.New("insufficient minutes")
	ErrIneligiblePosition  = errors.New("ineligible position")
)
