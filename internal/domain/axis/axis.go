// Package axis defines the four behavioral dimensions of the FPTI scheme
// and the letter pairs each dimension resolves to.
package axis

// Axis identifies one of the four behavioral dimensions.
type Axis int

// Axes in fixed code order. The archetype code concatenates one letter per
// axis in exactly this order.
const (
	Mentality Axis = iota
	WorkEthic
	Presence
	Temperament

	// Count is the number of axes.
	Count = 4
)

// Indeterminate marks an axis position whose letter could not be resolved.
const Indeterminate = "?"

var names = [Count]string{"mentality", "work_ethic", "presence", "temperament"}

// Letter pairs per axis: the high letter wins at or above the threshold.
var highLetters = [Count]string{"S", "W", "I", "N"}
var lowLetters = [Count]string{"F", "P", "C", "O"}

// All returns the axes in code order.
func All() [Count]Axis {
	return [Count]Axis{Mentality, WorkEthic, Presence, Temperament}
}

// String returns the snake_case axis name used in profiles and reports.
func (a Axis) String() string {
	if !a.Valid() {
		return "unknown"
	}
	return names[a]
}

// Valid reports whether a is one of the four defined axes.
func (a Axis) Valid() bool {
	return a >= Mentality && a < Count
}

// HighLetter returns the letter chosen when the axis scalar is at or above
// the decision threshold.
func (a Axis) HighLetter() string {
	if !a.Valid() {
		return Indeterminate
	}
	return highLetters[a]
}

// LowLetter returns the letter chosen when the axis scalar is below the
// decision threshold.
func (a Axis) LowLetter() string {
	if !a.Valid() {
		return Indeterminate
	}
	return lowLetters[a]
}

// Parse resolves a snake_case axis name to its Axis.
func Parse(name string) (Axis, bool) {
	for i, n := range names {
		if n == name {
			return Axis(i), true
		}
	}
	return Axis(-1), false
}

// Code concatenates per-axis letters into the four-letter archetype code.
// Letters must already be in code order.
func Code(letters [Count]string) string {
	out := ""
	for _, l := range letters {
		if l == "" {
			l = Indeterminate
		}
		out += l
	}
	return out
}
