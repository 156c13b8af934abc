// Package report assembles classification reports. Pure assembly: identical
// inputs always produce identical reports.
package report

import (
	"strings"

	"github.com/okian/fpti/internal/domain/assign"
	"github.com/okian/fpti/internal/domain/axis"
	"github.com/okian/fpti/internal/domain/model"
)

// Build assembles the report for a scored player. The verdict is complete
// when every axis resolved a letter and partial otherwise. Overall confidence
// averages the per-axis confidences over determinate axes only.
func Build(playerID, profileVersion, populationTag string, asg assign.Assignment, outcomes [axis.Count]assign.Outcome) model.ClassificationReport {
	rep := model.ClassificationReport{
		PlayerID:       playerID,
		Archetype:      asg.Code,
		ProfileVersion: profileVersion,
		PopulationTag:  populationTag,
		Verdict:        model.VerdictComplete,
	}

	determinate := 0
	confidenceSum := 0.0
	for _, a := range axis.All() {
		call := asg.Calls[a]
		rep.Axes[a] = model.AxisResult{
			Axis:        a.String(),
			Letter:      call.Letter,
			Score:       outcomes[a].Scalar,
			Margin:      call.Margin,
			Coverage:    outcomes[a].Coverage,
			Confidence:  call.Confidence,
			Determinate: call.Determinate,
		}
		if call.Determinate {
			determinate++
			confidenceSum += call.Confidence
		} else {
			rep.Verdict = model.VerdictPartial
		}
	}
	if determinate > 0 {
		rep.OverallConfidence = confidenceSum / float64(determinate)
	}
	return rep
}

// BuildIneligible assembles the report for a player excluded before scoring,
// e.g. below the profile's minimum minutes. Every axis is indeterminate and
// the record stays in the output sequence, never silently dropped.
func BuildIneligible(playerID, profileVersion, populationTag, reason string) model.ClassificationReport {
	rep := model.ClassificationReport{
		PlayerID:         playerID,
		Archetype:        strings.Repeat(axis.Indeterminate, axis.Count),
		ProfileVersion:   profileVersion,
		PopulationTag:    populationTag,
		Verdict:          model.VerdictIneligible,
		IneligibleReason: reason,
	}
	for _, a := range axis.All() {
		rep.Axes[a] = model.AxisResult{
			Axis:   a.String(),
			Letter: axis.Indeterminate,
		}
	}
	return rep
}
