package genetic

import (
	"math/rand/v2"

	"csscover/bigraph"
)

// roulette implements fitness-proportionate selection over a population
// sorted by ascending cost. The weight of an individual is worst+1-cost, so
// the worst one keeps a non-zero chance.
type roulette struct {
	population []*bigraph.Covering
	weights    []int
	total      int
}

func newRoulette(population []*bigraph.Covering) *roulette {
	costs := make([]int, len(population))
	for i, c := range population {
		costs[i] = c.Cost()
	}
	r := &roulette{population: population}
	r.weights, r.total = weigh(costs)
	return r
}

func weigh(costs []int) ([]int, int) {
	worst := 0
	for _, c := range costs {
		worst = max(worst, c)
	}
	weights := make([]int, len(costs))
	total := 0
	for i, c := range costs {
		weights[i] = worst + 1 - c
		total += weights[i]
	}
	return weights, total
}

// pick returns index of the selected individual.
func pick(rng *rand.Rand, weights []int, total int) int {
	target := rng.IntN(total)
	for i, w := range weights {
		target -= w
		if target < 0 {
			return i
		}
	}
	// unreachable while total is the sum of weights
	return len(weights) - 1
}

func (r *roulette) spin(rng *rand.Rand) *bigraph.Covering {
	return r.population[pick(rng, r.weights, r.total)]
}
