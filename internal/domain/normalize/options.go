package normalize

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithMinMinutes sets the minimum minutes a record needs to be normalized.
func WithMinMinutes(minutes float64) Option {
	return func(n *Normalizer) {
		if minutes > 0 {
			n.minMinutes = minutes
		}
	}
}

// WithTotals replaces the season-total to per-90 feature mapping.
func WithTotals(totals map[string]string) Option {
	return func(n *Normalizer) {
		if len(totals) > 0 {
			n.totals = totals
		}
	}
}

// WithEligibleGroups replaces the set of position groups accepted for
// classification.
func WithEligibleGroups(groups ...string) Option {
	return func(n *Normalizer) {
		if len(groups) == 0 {
			return
		}
		n.eligibleGroups = make(map[string]bool, len(groups))
		for _, g := range groups {
			n.eligibleGroups[g] = true
		}
	}
}

// populationConfig collects population construction options.
type populationConfig struct {
	tag        string
	group      string
	minMinutes float64
	totals     map[string]string
}

// PopulationOption applies a configuration option to NewPopulation.
type PopulationOption func(*populationConfig)

// WithTag sets the version tag the population is published under.
func WithTag(tag string) PopulationOption {
	return func(c *populationConfig) {
		c.tag = tag
	}
}

// WithPositionGroup scopes the population to a single position group.
func WithPositionGroup(group string) PopulationOption {
	return func(c *populationConfig) {
		c.group = group
	}
}

// WithPopulationMinMinutes excludes records below the given minutes from the
// reference population.
func WithPopulationMinMinutes(minutes float64) PopulationOption {
	return func(c *populationConfig) {
		if minutes > 0 {
			c.minMinutes = minutes
		}
	}
}

// WithPopulationTotals replaces the season-total to per-90 feature mapping
// used when aggregating population records.
func WithPopulationTotals(totals map[string]string) PopulationOption {
	return func(c *populationConfig) {
		if len(totals) > 0 {
			c.totals = totals
		}
	}
}
