package normalize

import (
	"strings"

	"github.com/okian/fpti/internal/domain/model"
)

// Position group names. GK and UNK are excluded from classification the same
// way the data set excludes them from calibration.
const (
	GroupForward    = "FWD"
	GroupMidfielder = "MID"
	GroupDefender   = "DEF"
	GroupKeeper     = "GK"
	GroupUnknown    = "UNK"
)

// defaultTotals maps season-total stat names to the per-90 feature names the
// calibration profiles reference. Stats not listed here are taken as already
// rate-based and pass through under their own name.
var defaultTotals = map[string]string{
	"xg":              "xg_p90",
	"xa":              "xa_p90",
	"npxg":            "npxg_p90",
	"shots":           "shots_p90",
	"key_passes":      "key_passes_p90",
	"xg_chain":        "xg_chain_p90",
	"xg_buildup":      "xg_buildup_p90",
	"fouls_committed": "fouls_p90",
	"yellow_cards":    "yellow_cards_p90",
	"red_cards":       "red_cards_p90",
	"tackles":         "tackles_per_90",
	"interceptions":   "interceptions_per_90",
	"clearances":      "clearances_per_90",
}

const minutesPerMatch = 90.0

// PositionGroup folds a raw position string into a coarse group.
func PositionGroup(pos string) string {
	p := strings.ToUpper(strings.TrimSpace(pos))
	if p == "" {
		return GroupUnknown
	}
	switch {
	case p == "S" || p == "SUB" || p[0] == 'F':
		return GroupForward
	case p[0] == 'M':
		return GroupMidfielder
	case p[0] == 'D':
		return GroupDefender
	case p[0] == 'G':
		return GroupKeeper
	default:
		return GroupUnknown
	}
}

// deriveFeatures maps a record's raw stats into feature space, converting
// registered totals to per-90 rates. Minutes must be positive.
func deriveFeatures(rec model.RawStatRecord, totals map[string]string) map[string]float64 {
	out := make(map[string]float64, len(rec.Stats))
	for name, value := range rec.Stats {
		if feature, ok := totals[name]; ok {
			out[feature] = value / rec.Minutes * minutesPerMatch
			continue
		}
		out[name] = value
	}
	return out
}
