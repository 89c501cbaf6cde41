package genetic

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"csscover/common"
)

// ErrInvalidConfig is wrapped by every problem Validate reports.
var ErrInvalidConfig = errors.New("invalid optimizer configuration")

// Config holds all knobs of the search. There are no hidden defaults, use
// DefaultConfig as a starting point.
type Config struct {
	PopulationSize int
	EliteCount     int
	// MaxGenerations of 0 means no limit, search runs until StagnationLimit
	// generations pass without improvement.
	MaxGenerations       int
	StagnationLimit      int
	CrossoverProbability float64
	MutationProbability  float64
	// MergeProbability chooses merge over split when a child is mutated.
	MergeProbability float64
	MutationMode     common.MutationMode
	// Workers bounds how many child pairs are produced concurrently.
	Workers int
	// Seed of the random generator, 0 picks one from the clock.
	Seed uint64
}

// DefaultConfig returns settings that work well for stylesheets of a few
// hundred rules.
func DefaultConfig() Config {
	return Config{
		PopulationSize:       30,
		EliteCount:           4,
		MaxGenerations:       200,
		StagnationLimit:      35,
		CrossoverProbability: 0.8,
		MutationProbability:  0.1,
		MergeProbability:     0.8,
		MutationMode:         common.MutationModeIndividual,
		Workers:              1,
	}
}

// Validate reports all problems at once.
func (c Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}
	check(c.PopulationSize >= 2, "population size %d must be at least 2", c.PopulationSize)
	check(c.EliteCount >= 0 && c.EliteCount <= c.PopulationSize, "elite count %d must be within 0..%d", c.EliteCount, c.PopulationSize)
	check(c.MaxGenerations >= 0, "max generations %d must not be negative", c.MaxGenerations)
	check(c.StagnationLimit >= 1, "stagnation limit %d must be at least 1", c.StagnationLimit)
	check(probability(c.CrossoverProbability), "crossover probability %v must be within [0, 1]", c.CrossoverProbability)
	check(probability(c.MutationProbability), "mutation probability %v must be within [0, 1]", c.MutationProbability)
	check(probability(c.MergeProbability), "merge probability %v must be within [0, 1]", c.MergeProbability)
	check(c.MutationMode.IsValid(), "unknown mutation mode %q", c.MutationMode)
	check(c.Workers >= 1, "workers %d must be at least 1", c.Workers)
	return err
}

func probability(p float64) bool {
	return p >= 0 && p <= 1
}
