// Package assign thresholds axis scalars into letters and assembles the
// four-letter archetype code.
package assign

import (
	"math"

	"github.com/okian/fpti/internal/domain/axis"
)

// Outcome is one axis scorer's result fed into the assigner.
type Outcome struct {
	Scalar      float64
	Coverage    float64
	Unscoreable bool
}

// Call is the assigner's decision for one axis.
type Call struct {
	Letter      string
	Margin      float64
	Confidence  float64
	Determinate bool
}

// Assignment is the resolved archetype code with per-axis calls.
type Assignment struct {
	Code  string
	Calls [axis.Count]Call
}

// Assign resolves one letter per axis. A scalar at or above the threshold
// takes the high letter; exact ties resolve high by definition. Unscoreable
// axes get the indeterminate marker instead of a guess.
func Assign(outcomes [axis.Count]Outcome, thresholds [axis.Count]float64) Assignment {
	var asg Assignment
	var letters [axis.Count]string

	for _, a := range axis.All() {
		out := outcomes[a]
		if out.Unscoreable {
			letters[a] = axis.Indeterminate
			asg.Calls[a] = Call{Letter: axis.Indeterminate}
			continue
		}

		margin := out.Scalar - thresholds[a]
		letter := a.LowLetter()
		if out.Scalar >= thresholds[a] {
			letter = a.HighLetter()
		}
		letters[a] = letter
		asg.Calls[a] = Call{
			Letter:      letter,
			Margin:      margin,
			Confidence:  confidence(margin),
			Determinate: true,
		}
	}

	asg.Code = axis.Code(letters)
	return asg
}

// confidence maps a signed margin to [0.5, 1): 0.5 at the boundary,
// approaching 1 as the scalar moves away from the threshold.
func confidence(margin float64) float64 {
	return 1 / (1 + math.Exp(-math.Abs(margin)))
}
