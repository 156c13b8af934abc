// Package normalize converts raw stat records into unit-comparable feature
// vectors using z-scores against a reference population.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"github.com/okian/fpti/internal/domain/model"
)

// StatParams holds the normalization parameters for one feature.
type StatParams struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Count  int     `json:"count"`
}

// Population is the reference group used to normalize a player's features.
// Immutable after construction; safe to share across workers.
type Population struct {
	tag    string
	group  string
	size   int
	params map[string]StatParams
}

// NewPopulation computes per-feature normalization parameters from records.
// Records below the configured minimum minutes, outside the configured
// position group, or with non-positive minutes are excluded.
func NewPopulation(records []model.RawStatRecord, opts ...PopulationOption) *Population {
	cfg := populationConfig{
		totals: defaultTotals,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	sums := make(map[string]float64)
	sqSums := make(map[string]float64)
	counts := make(map[string]int)
	size := 0

	for _, rec := range records {
		if rec.Minutes <= 0 || rec.Minutes < cfg.minMinutes {
			continue
		}
		if cfg.group != "" && PositionGroup(rec.Position) != cfg.group {
			continue
		}
		size++
		for name, value := range deriveFeatures(rec, cfg.totals) {
			sums[name] += value
			sqSums[name] += value * value
			counts[name]++
		}
	}

	params := make(map[string]StatParams, len(sums))
	for name, sum := range sums {
		n := counts[name]
		mean := sum / float64(n)
		variance := sqSums[name]/float64(n) - mean*mean
		if variance < 0 {
			variance = 0
		}
		params[name] = StatParams{
			Mean:   mean,
			StdDev: math.Sqrt(variance),
			Count:  n,
		}
	}

	return &Population{
		tag:    cfg.tag,
		group:  cfg.group,
		size:   size,
		params: params,
	}
}

// Tag returns the version tag the population was published under.
func (p *Population) Tag() string { return p.tag }

// Group returns the position group the population is scoped to, or "".
func (p *Population) Group() string { return p.group }

// Size returns the number of records that contributed to the population.
func (p *Population) Size() int { return p.size }

// Params returns the normalization parameters for a feature name.
func (p *Population) Params(feature string) (StatParams, bool) {
	sp, ok := p.params[feature]
	return sp, ok
}

// Features returns the feature names with parameters, sorted.
func (p *Population) Features() []string {
	out := make([]string, 0, len(p.params))
	for name := range p.params {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Covers reports whether every given feature has normalization parameters.
// Axis scorer weight lists must satisfy this against the population in use.
func (p *Population) Covers(features []string) bool {
	for _, f := range features {
		if _, ok := p.params[f]; !ok {
			return false
		}
	}
	return true
}

// Checksum returns a content hash of the population parameters, used for
// version-tagged publication.
func (p *Population) Checksum() string {
	h := sha256.New()
	fmt.Fprintf(h, "tag=%s group=%s size=%d\n", p.tag, p.group, p.size)
	for _, name := range p.Features() {
		sp := p.params[name]
		fmt.Fprintf(h, "%s %.12g %.12g %d\n", name, sp.Mean, sp.StdDev, sp.Count)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Snapshot is the serializable form of a Population.
type Snapshot struct {
	Tag    string                `json:"tag"`
	Group  string                `json:"group,omitempty"`
	Size   int                   `json:"size"`
	Params map[string]StatParams `json:"params"`
}

// Snapshot returns a serializable copy of the population.
func (p *Population) Snapshot() Snapshot {
	params := make(map[string]StatParams, len(p.params))
	for name, sp := range p.params {
		params[name] = sp
	}
	return Snapshot{Tag: p.tag, Group: p.group, Size: p.size, Params: params}
}

// Restore rebuilds a Population from a published snapshot.
func Restore(s Snapshot) *Population {
	params := make(map[string]StatParams, len(s.Params))
	for name, sp := range s.Params {
		params[name] = sp
	}
	return &Population{tag: s.Tag, group: s.Group, size: s.Size, params: params}
}
