package normalize

import (
	"fmt"

	"github.com/okian/fpti/internal/domain/model"
)

// Normalizer converts raw stat records into feature vectors of z-scores
// against a reference population.
type Normalizer struct {
	minMinutes     float64
	totals         map[string]string
	eligibleGroups map[string]bool
}

// NewNormalizer creates a Normalizer with configuration options.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		totals: defaultTotals,
		eligibleGroups: map[string]bool{
			GroupForward:    true,
			GroupMidfielder: true,
			GroupDefender:   true,
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize computes a feature vector for one record against one population.
// Stats absent from the record stay absent in the vector; a feature whose
// population standard deviation is zero normalizes to 0. Returns
// ErrInsufficientMinutes or ErrIneligiblePosition for ineligible records.
func (n *Normalizer) Normalize(rec model.RawStatRecord, pop *Population) (model.FeatureVector, error) {
	if rec.Minutes <= 0 || rec.Minutes < n.minMinutes {
		return nil, fmt.Errorf("player %s has %.0f minutes, need %.0f: %w",
			rec.PlayerID, rec.Minutes, n.minMinutes, ErrInsufficientMinutes)
	}
	if group := PositionGroup(rec.Position); !n.eligibleGroups[group] {
		return nil, fmt.Errorf("player %s position group %s: %w", rec.PlayerID, group, ErrIneligiblePosition)
	}

	features := deriveFeatures(rec, n.totals)
	fv := make(model.FeatureVector, len(features))
	for name, value := range features {
		params, ok := pop.Params(name)
		if !ok {
			// No reference distribution for this feature; leave it absent
			// rather than guessing a scale.
			continue
		}
		if params.StdDev == 0 {
			fv[name] = 0
			continue
		}
		fv[name] = (value - params.Mean) / params.StdDev
	}
	return fv, nil
}
