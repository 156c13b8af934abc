package loadtool

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/fpti/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	styleDivisor       = 6
)

// Minutes distribution. A slice of the generated players lands below the
// default eligibility floor on purpose, so ineligible verdicts show up in
// the results.
const (
	regularStarterMin   = 2200.0
	regularStarterRange = 1200.0
	rotationMin         = 1500.0
	rotationRange       = 900.0
	fringeMin           = 200.0
	fringeRange         = 1200.0
)

// Player style cases steering the stat distributions.
const (
	stylePoacher = iota
	styleCreator
	styleDestroyer
	styleAggressor
	styleBalanced
	styleFringe
)

var positions = []string{"FW", "F C", "F S", "M(C)", "M(CLR)", "MC", "D(C)", "D(CR)", "DC", "GK"}

// randomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func randomInt(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// generateRecords creates the configured number of synthetic player records
// with unique player IDs and varied stat profiles.
func generateRecords(ctx context.Context, config *Config, stats *Stats) []Record {
	logger.Get().Info(ctx, "generating player records", logger.Int("numPlayers", config.NumPlayers))

	records := make([]Record, config.NumPlayers)
	for i := range records {
		records[i] = generateSingleRecord(i)
	}

	stats.PlayersGenerated = len(records)
	logger.Get().Info(ctx, "generated records successfully", logger.Int("count", len(records)))
	return records
}

// generateSingleRecord creates one synthetic record. Stats are season totals;
// the service derives per-90 rates from minutes.
func generateSingleRecord(index int) Record {
	style := randomInt(styleDivisor)
	minutes := generateMinutes(style)
	factor := minutes / 90.0

	rec := Record{
		PlayerID:      uuid.New().String(),
		PlayerName:    "player_" + strconv.Itoa(index),
		Position:      positions[randomInt(int64(len(positions)))],
		RecordVersion: "loadtest",
		Minutes:       minutes,
		Stats:         make(map[string]float64, 12),
	}

	// Base rates per 90, skewed by style.
	var shootRate, createRate, defendRate, foulRate float64
	switch style {
	case stylePoacher:
		shootRate, createRate, defendRate, foulRate = 0.6, 0.1, 0.5, 0.8
	case styleCreator:
		shootRate, createRate, defendRate, foulRate = 0.15, 0.5, 0.8, 0.7
	case styleDestroyer:
		shootRate, createRate, defendRate, foulRate = 0.05, 0.1, 3.5, 1.6
	case styleAggressor:
		shootRate, createRate, defendRate, foulRate = 0.2, 0.2, 2.0, 2.8
	default:
		shootRate, createRate, defendRate, foulRate = 0.2, 0.2, 1.5, 1.2
	}

	jitter := func(rate float64) float64 {
		return rate * (0.5 + randomFloat()) * factor
	}

	rec.Stats["xg"] = jitter(shootRate)
	rec.Stats["npxg"] = jitter(shootRate * 0.85)
	rec.Stats["shots"] = jitter(shootRate * 6)
	rec.Stats["xa"] = jitter(createRate)
	rec.Stats["key_passes"] = jitter(createRate * 5)
	rec.Stats["xg_buildup"] = jitter(createRate * 2)
	rec.Stats["xg_chain"] = jitter(shootRate + createRate)
	rec.Stats["tackles"] = jitter(defendRate)
	rec.Stats["interceptions"] = jitter(defendRate * 0.8)
	rec.Stats["clearances"] = jitter(defendRate * 1.2)
	rec.Stats["fouls_committed"] = jitter(foulRate)
	rec.Stats["yellow_cards"] = jitter(foulRate * 0.15)
	return rec
}

// generateMinutes picks a minutes total; fringe players fall below the
// eligibility floor.
func generateMinutes(style int64) float64 {
	switch style {
	case styleFringe:
		return fringeMin + randomFloat()*fringeRange
	case styleBalanced:
		return rotationMin + randomFloat()*rotationRange
	default:
		return regularStarterMin + randomFloat()*regularStarterRange
	}
}
