// Package genetic searches for cheap coverings of a selector/declaration graph
// with a generational genetic algorithm: fitness-proportionate selection,
// crossover, merge/split mutation, elitism and early stop on stagnation.
package genetic

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"csscover/bigraph"
)

// State of the optimizer.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// StopReason tells why the search ended.
type StopReason string

const (
	// StopEmpty - there was nothing to optimize.
	StopEmpty StopReason = "empty"
	// StopGenerations - generation budget exhausted.
	StopGenerations StopReason = "generations"
	// StopStagnation - best cost did not improve for too long.
	StopStagnation StopReason = "stagnation"
	// StopCanceled - context was canceled or its deadline passed.
	StopCanceled StopReason = "canceled"
)

// Result of a single run.
type Result struct {
	Best        *bigraph.Covering
	BaseCost    int
	Generations int
	Reason      StopReason
	// History has best-of-generation cost for every generation run.
	History []int
	Seed    uint64
	Elapsed time.Duration
}

// Cost of the best covering.
func (r *Result) Cost() int { return r.Best.Cost() }

// Ratio returns final cost as integer percent of base cost.
func (r *Result) Ratio() int {
	if r.BaseCost == 0 {
		return 100
	}
	return 100 * r.Best.Cost() / r.BaseCost
}

// Optimizer evolves populations of coverings. It is not safe for concurrent
// Run calls.
type Optimizer struct {
	cfg   Config
	log   *zap.Logger
	seed  uint64
	rng   *rand.Rand
	state atomic.Int32
}

// New validates configuration and prepares random generator.
func New(cfg Config, log *zap.Logger) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Optimizer{
		cfg:  cfg,
		log:  log.Named("optimizer"),
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed>>1|1)),
	}, nil
}

// Seed returns the seed actually used, useful to reproduce a run.
func (o *Optimizer) Seed() uint64 { return o.seed }

func (o *Optimizer) State() State { return State(o.state.Load()) }

// Run evolves copies of base and returns the cheapest covering seen. Without a
// generation budget the search ends only on stagnation or cancellation. When ctx
// is done between or during generations Run returns the best covering found so
// far with Reason StopCanceled together with the context error.
func (o *Optimizer) Run(ctx context.Context, base *bigraph.Covering) (*Result, error) {
	o.state.Store(int32(StateRunning))
	defer o.state.Store(int32(StateDone))

	start := time.Now()
	res := &Result{BaseCost: base.Cost(), Seed: o.seed}
	defer func() { res.Elapsed = time.Since(start) }()

	o.log.Info("Optimization started",
		zap.Int("rules", base.Len()),
		zap.Int("edges", base.Graph().EdgeCount()),
		zap.Int("cost", res.BaseCost),
		zap.Uint64("seed", o.seed),
		zap.Int("population", o.cfg.PopulationSize),
		zap.Int("workers", o.cfg.Workers))

	if base.Len() == 0 {
		res.Best, res.Reason = base.Copy(), StopEmpty
		return res, nil
	}

	population := make([]*bigraph.Covering, o.cfg.PopulationSize)
	for i := range population {
		population[i] = base.Copy()
	}
	sortByCost(population)
	res.Best, res.Reason = population[0], StopGenerations

	stagnant := 0
	for generation := 0; o.cfg.MaxGenerations == 0 || generation < o.cfg.MaxGenerations; generation++ {
		if err := ctx.Err(); err != nil {
			res.Reason = StopCanceled
			return res, fmt.Errorf("optimization interrupted after %d generations: %w", generation, err)
		}

		next, err := o.nextGeneration(ctx, population)
		if err != nil {
			if ctx.Err() != nil {
				res.Reason = StopCanceled
				return res, fmt.Errorf("optimization interrupted after %d generations: %w", generation, ctx.Err())
			}
			return res, fmt.Errorf("generation %d: %w", generation, err)
		}
		population = next
		res.Generations = generation + 1

		best := population[0]
		res.History = append(res.History, best.Cost())
		o.log.Debug("Generation done", zap.Int("generation", generation), zap.Int("best", best.Cost()), zap.Int("worst", population[len(population)-1].Cost()))

		if best.Cost() < res.Best.Cost() {
			res.Best, stagnant = best, 0
			continue
		}
		stagnant++
		if stagnant >= o.cfg.StagnationLimit {
			res.Reason = StopStagnation
			break
		}
	}

	o.log.Info("Optimization finished",
		zap.Int("cost", res.Best.Cost()),
		zap.Int("ratio", res.Ratio()),
		zap.Int("generations", res.Generations),
		zap.String("reason", string(res.Reason)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// nextGeneration carries elites over and fills the rest with children of
// selected parents. Each child pair has its own generator seeded from the
// master one beforehand so result does not depend on the number of workers.
// Population is not modified.
func (o *Optimizer) nextGeneration(ctx context.Context, population []*bigraph.Covering) ([]*bigraph.Covering, error) {
	size := o.cfg.PopulationSize
	need := size - o.cfg.EliteCount
	pairs := (need + 1) / 2

	seeds := make([][2]uint64, pairs)
	for i := range seeds {
		seeds[i] = [2]uint64{o.rng.Uint64(), o.rng.Uint64()}
	}

	wheel := newRoulette(population)
	children := make([]*bigraph.Covering, 2*pairs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)
	for i := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seeds[i][0], seeds[i][1]))
			c1, c2, err := o.breed(rng, wheel.spin(rng), wheel.spin(rng))
			if err != nil {
				return err
			}
			// price children here so sorting does not do it sequentially
			c1.Cost()
			c2.Cost()
			children[2*i], children[2*i+1] = c1, c2
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	next := make([]*bigraph.Covering, 0, o.cfg.EliteCount+len(children))
	next = append(next, population[:o.cfg.EliteCount]...)
	next = append(next, children...)
	sortByCost(next)
	return next[:size], nil
}

// breed produces two children: crossover or plain copies, then mutation.
func (o *Optimizer) breed(rng *rand.Rand, p1, p2 *bigraph.Covering) (*bigraph.Covering, *bigraph.Covering, error) {
	var c1, c2 *bigraph.Covering
	if rng.Float64() < o.cfg.CrossoverProbability {
		var err error
		if c1, c2, err = p1.Crossover(rng, p2); err != nil {
			return nil, nil, err
		}
	} else {
		c1, c2 = p1.Copy(), p2.Copy()
	}
	o.mutate(rng, c1)
	o.mutate(rng, c2)
	return c1, c2, nil
}

func (o *Optimizer) mutate(rng *rand.Rand, c *bigraph.Covering) {
	for range o.cfg.MutationMode.Trials(c.Len()) {
		if rng.Float64() < o.cfg.MutationProbability {
			c.Mutate(rng, o.cfg.MergeProbability)
		}
	}
}

// sortByCost keeps relative order of equally priced coverings.
func sortByCost(population []*bigraph.Covering) {
	slices.SortStableFunc(population, func(a, b *bigraph.Covering) int {
		return a.Cost() - b.Cost()
	})
}
