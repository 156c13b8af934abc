package scoring

// Option applies a configuration option to the LinearScorer.
type Option func(*LinearScorer)

// WithMinCoverage sets the minimum coverage ratio below which the axis is
// unscoreable. Must be a fraction in [0, 1].
func WithMinCoverage(minCoverage float64) Option {
	return func(s *LinearScorer) {
		if minCoverage >= 0 && minCoverage <= 1 {
			s.minCoverage = minCoverage
		}
	}
}
