// Package model contains domain models passed between layers.
package model

import "github.com/okian/fpti/internal/domain/axis"

// RawStatRecord is one player's raw statistics for an observation window.
// Stats is an open, sparse mapping; absent stats stay absent through the
// pipeline so downstream scorers can see missingness explicitly.
type RawStatRecord struct {
	PlayerID      string             // subject identifier
	PlayerName    string             // optional display name
	Position      string             // raw position string, e.g. "FW", "M(CLR)"
	RecordVersion string             // version tag of the observation window, e.g. "2024-epl"; empty disables caching
	Minutes       float64            // minutes played in the window
	Stats         map[string]float64 // stat-name -> value (totals or per-90, see normalize)
}

// FeatureVector is a normalized numeric value per stat-name for one player.
// Keys absent from the source record remain absent here.
type FeatureVector map[string]float64

// Verdict is the data-sufficiency outcome of one classification.
type Verdict string

// Verdicts. Every input record yields exactly one report carrying one of
// these; per-player shortfalls never abort a batch.
const (
	VerdictComplete   Verdict = "complete"
	VerdictPartial    Verdict = "partial"
	VerdictIneligible Verdict = "ineligible"
)

// AxisResult is the scored outcome of a single axis for one player.
type AxisResult struct {
	Axis        string  `json:"axis"`
	Letter      string  `json:"letter"`
	Score       float64 `json:"score"`
	Margin      float64 `json:"margin"`
	Coverage    float64 `json:"coverage"`
	Confidence  float64 `json:"confidence"`
	Determinate bool    `json:"determinate"`
}

// ClassificationReport is the final output for one player under one profile
// version. Immutable once built; safe to cache keyed by
// (PlayerID, RecordVersion, ProfileVersion, PopulationTag).
type ClassificationReport struct {
	PlayerID          string                 `json:"player_id"`
	Archetype         string                 `json:"archetype"`
	Axes              [axis.Count]AxisResult `json:"axes"`
	ProfileVersion    string                 `json:"profile_version"`
	PopulationTag     string                 `json:"population_tag,omitempty"`
	Verdict           Verdict                `json:"verdict"`
	OverallConfidence float64                `json:"overall_confidence"`
	IneligibleReason  string                 `json:"ineligible_reason,omitempty"`
}
