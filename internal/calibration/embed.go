package calibration

import _ "embed"

// DefaultProfileYAML is the calibration shipped with the service: z-score
// space, thresholds at the population mean, signals mirroring the data set
// the scheme was derived from.
//
//go:embed profiles/v1.yaml
var DefaultProfileYAML []byte
