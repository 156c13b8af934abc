// Package scoring maps normalized feature vectors to per-axis scalars.
package scoring

import (
	"fmt"
	"math"

	"github.com/okian/fpti/internal/domain/axis"
	"github.com/okian/fpti/internal/domain/model"
)

// Weights maps feature names to their signed contribution to an axis scalar.
type Weights map[string]float64

// Result contains the computed scalar for one axis.
type Result struct {
	Axis     axis.Axis
	Scalar   float64
	Coverage float64
}

// Scorer computes a single axis scalar from a feature vector. A learned
// model can replace LinearScorer behind this contract without touching the
// assigner or report builder.
type Scorer interface {
	Score(fv model.FeatureVector) (Result, error)
}

// LinearScorer implements Scorer as a weighted sum over the features present
// in both the vector and the weight list, renormalized by the absolute
// weight mass actually used so missing stats do not drag the scalar to zero.
type LinearScorer struct {
	axis        axis.Axis
	weights     Weights
	minCoverage float64
	totalAbs    float64
}

// NewLinearScorer creates a scorer for one axis with configuration options.
func NewLinearScorer(a axis.Axis, weights Weights, opts ...Option) *LinearScorer {
	s := &LinearScorer{
		axis:    a,
		weights: make(Weights, len(weights)),
	}
	for name, w := range weights {
		s.weights[name] = w
		s.totalAbs += math.Abs(w)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Axis returns the axis this scorer is bound to.
func (s *LinearScorer) Axis() axis.Axis { return s.axis }

// Features returns the feature names with non-zero weight.
func (s *LinearScorer) Features() []string {
	out := make([]string, 0, len(s.weights))
	for name, w := range s.weights {
		if w != 0 {
			out = append(out, name)
		}
	}
	return out
}

// Score computes the axis scalar and coverage ratio for a feature vector.
// Returns ErrAxisUnscoreable when the coverage ratio falls below the
// configured minimum; the Result still carries the coverage so callers can
// report it.
func (s *LinearScorer) Score(fv model.FeatureVector) (Result, error) {
	var sum, usedAbs float64
	for name, w := range s.weights {
		if w == 0 {
			continue
		}
		value, ok := fv[name]
		if !ok {
			continue
		}
		sum += w * value
		usedAbs += math.Abs(w)
	}

	coverage := 0.0
	if s.totalAbs > 0 {
		coverage = usedAbs / s.totalAbs
	}
	res := Result{Axis: s.axis, Coverage: coverage}
	if coverage < s.minCoverage || usedAbs == 0 {
		return res, fmt.Errorf("axis %s coverage %.3f below minimum %.3f: %w",
			s.axis, coverage, s.minCoverage, ErrAxisUnscoreable)
	}
	res.Scalar = sum / usedAbs
	return res, nil
}
