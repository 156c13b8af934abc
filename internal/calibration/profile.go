// Package calibration owns versioned, validated calibration profiles: the
// per-axis weights, thresholds and coverage requirements the scoring
// pipeline reads.
package calibration

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/okian/fpti/internal/domain/axis"
	"github.com/okian/fpti/internal/domain/scoring"
)

// AxisParams holds the calibration parameters for one axis.
type AxisParams struct {
	Weights     scoring.Weights
	Threshold   float64
	MinCoverage float64
}

// Profile is an immutable, versioned calibration bundle. Construct through
// Parse; never mutate a loaded profile — updates publish a new version.
type Profile struct {
	version    string
	minMinutes float64
	checksum   string
	axes       [axis.Count]AxisParams
}

// Version returns the profile's version string.
func (p *Profile) Version() string { return p.version }

// MinMinutes returns the minimum minutes a record needs under this profile.
func (p *Profile) MinMinutes() float64 { return p.minMinutes }

// Checksum returns the sha256 hex digest of the published profile document.
func (p *Profile) Checksum() string { return p.checksum }

// Weights returns a copy of the weight list for an axis.
func (p *Profile) Weights(a axis.Axis) scoring.Weights {
	src := p.axes[a].Weights
	out := make(scoring.Weights, len(src))
	for name, w := range src {
		out[name] = w
	}
	return out
}

// Threshold returns the decision threshold for an axis.
func (p *Profile) Threshold(a axis.Axis) float64 { return p.axes[a].Threshold }

// Thresholds returns the decision thresholds in axis order.
func (p *Profile) Thresholds() [axis.Count]float64 {
	var out [axis.Count]float64
	for _, a := range axis.All() {
		out[a] = p.axes[a].Threshold
	}
	return out
}

// MinCoverage returns the minimum coverage ratio for an axis.
func (p *Profile) MinCoverage(a axis.Axis) float64 { return p.axes[a].MinCoverage }

// WeightCount returns the number of weight entries defined for an axis.
func (p *Profile) WeightCount(a axis.Axis) int { return len(p.axes[a].Weights) }

// Wire document types. Weights are a list of (stat, weight) pairs so that
// duplicate stat names are detectable; a YAML mapping would swallow them.
type profileDoc struct {
	Version    string             `yaml:"version"`
	MinMinutes float64            `yaml:"min_minutes"`
	Axes       map[string]axisDoc `yaml:"axes"`
}

type axisDoc struct {
	Threshold   float64     `yaml:"threshold"`
	MinCoverage float64     `yaml:"min_coverage"`
	Weights     []weightDoc `yaml:"weights"`
}

type weightDoc struct {
	Stat   string  `yaml:"stat"`
	Weight float64 `yaml:"weight"`
}

// Parse decodes and validates a profile document. Unknown fields, missing or
// extra axes, duplicate stat names, empty or all-zero weight lists, and
// non-finite numbers all fail with ErrProfileInvalid.
func Parse(raw []byte) (*Profile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var doc profileDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode profile: %v: %w", err, ErrProfileInvalid)
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("missing version: %w", ErrProfileInvalid)
	}
	if !isFinite(doc.MinMinutes) || doc.MinMinutes < 0 {
		return nil, fmt.Errorf("min_minutes must be a non-negative finite number: %w", ErrProfileInvalid)
	}
	if len(doc.Axes) != axis.Count {
		return nil, fmt.Errorf("profile %s defines %d axes, want %d: %w",
			doc.Version, len(doc.Axes), axis.Count, ErrProfileInvalid)
	}

	sum := sha256.Sum256(raw)
	p := &Profile{
		version:    doc.Version,
		minMinutes: doc.MinMinutes,
		checksum:   hex.EncodeToString(sum[:]),
	}

	for name, ad := range doc.Axes {
		a, ok := axis.Parse(name)
		if !ok {
			return nil, fmt.Errorf("profile %s: unknown axis %q: %w", doc.Version, name, ErrProfileInvalid)
		}
		params, err := parseAxis(ad)
		if err != nil {
			return nil, fmt.Errorf("profile %s axis %s: %w", doc.Version, name, err)
		}
		p.axes[a] = params
	}
	return p, nil
}

func parseAxis(ad axisDoc) (AxisParams, error) {
	if len(ad.Weights) == 0 {
		return AxisParams{}, fmt.Errorf("no weights defined: %w", ErrProfileInvalid)
	}
	if !isFinite(ad.Threshold) {
		return AxisParams{}, fmt.Errorf("threshold is not finite: %w", ErrProfileInvalid)
	}
	if !isFinite(ad.MinCoverage) || ad.MinCoverage < 0 || ad.MinCoverage > 1 {
		return AxisParams{}, fmt.Errorf("min_coverage must be a fraction in [0,1]: %w", ErrProfileInvalid)
	}

	weights := make(scoring.Weights, len(ad.Weights))
	totalAbs := 0.0
	for _, wd := range ad.Weights {
		if wd.Stat == "" {
			return AxisParams{}, fmt.Errorf("weight entry with empty stat name: %w", ErrProfileInvalid)
		}
		if !isFinite(wd.Weight) {
			return AxisParams{}, fmt.Errorf("weight for %s is not finite: %w", wd.Stat, ErrProfileInvalid)
		}
		if _, dup := weights[wd.Stat]; dup {
			return AxisParams{}, fmt.Errorf("duplicate stat %s: %w", wd.Stat, ErrProfileInvalid)
		}
		weights[wd.Stat] = wd.Weight
		totalAbs += math.Abs(wd.Weight)
	}
	if totalAbs == 0 {
		return AxisParams{}, fmt.Errorf("all weights are zero: %w", ErrProfileInvalid)
	}

	return AxisParams{
		Weights:     weights,
		Threshold:   ad.Threshold,
		MinCoverage: ad.MinCoverage,
	}, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
