package genetic

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"go.uber.org/zap"

	"csscover/bigraph"
	"csscover/common"
)

func testConfig(seed uint64) Config {
	cfg := DefaultConfig()
	cfg.Seed = seed
	return cfg
}

func rules(pairs ...[2]string) []bigraph.Rule {
	out := make([]bigraph.Rule, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, bigraph.Rule{Selectors: []string{p[0]}, Declarations: []string{p[1]}})
	}
	return out
}

// stylesheet is a typical reset-like sheet with a lot of repetition.
func stylesheet() []bigraph.Rule {
	var out []bigraph.Rule
	for i := range 8 {
		out = append(out,
			bigraph.Rule{Selectors: []string{fmt.Sprintf("h%d", i)}, Declarations: []string{"margin:0", "padding:0"}},
			bigraph.Rule{Selectors: []string{fmt.Sprintf(".col-%d", i)}, Declarations: []string{"float:left", fmt.Sprintf("width:%d%%", 10*(i%4+1))}},
		)
	}
	out = append(out,
		bigraph.Rule{Selectors: []string{"ul", "ol"}, Declarations: []string{"margin:0", "list-style:none"}},
		bigraph.Rule{Selectors: []string{"a"}, Declarations: []string{"color:#06c", "text-decoration:none"}},
		bigraph.Rule{Selectors: []string{"a:hover"}, Declarations: []string{"color:#06c", "text-decoration:underline"}},
	)
	return out
}

func run(t *testing.T, cfg Config, base *bigraph.Covering) *Result {
	t.Helper()
	o, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	res, err := o.Run(context.Background(), base)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if !res.Best.Complete() || !res.Best.Valid() {
		t.Fatalf("best covering breaks invariants:\n%s", res.Best.Dump())
	}
	return res
}

func TestOptimizer_Example1(t *testing.T) {
	_, base := bigraph.Build(rules([2]string{"a", "color:red"}, [2]string{"b", "color:red"}))
	if base.Cost() != 26 {
		t.Fatalf("base cost = %d, want 26", base.Cost())
	}

	res := run(t, testConfig(1), base)
	if res.Cost() > 15 {
		t.Errorf("Cost() = %d, want at most 15", res.Cost())
	}
	if got := res.Best.String(); got != "a,b{color:red}\n" {
		t.Errorf("best = %q", got)
	}
	if res.BaseCost != 26 || res.Ratio() != 57 {
		t.Errorf("BaseCost = %d, Ratio() = %d", res.BaseCost, res.Ratio())
	}
}

func TestOptimizer_Example2(t *testing.T) {
	_, base := bigraph.Build(rules([2]string{"a", "x:1"}, [2]string{"a", "y:2"}))
	if base.Cost() != 14 {
		t.Fatalf("base cost = %d, want 14", base.Cost())
	}

	res := run(t, testConfig(2), base)
	if res.Cost() > 11 {
		t.Errorf("Cost() = %d, want at most 11", res.Cost())
	}
}

func TestOptimizer_MemberMutationMode(t *testing.T) {
	_, base := bigraph.Build(rules([2]string{"a", "color:red"}, [2]string{"b", "color:red"}))
	cfg := testConfig(3)
	cfg.MutationMode = common.MutationModeMember
	if res := run(t, cfg, base); res.Cost() > 15 {
		t.Errorf("Cost() = %d, want at most 15", res.Cost())
	}
}

func TestOptimizer_Empty(t *testing.T) {
	_, base := bigraph.Build(nil)
	res := run(t, testConfig(4), base)
	if res.Cost() != 0 || res.Generations != 0 || res.Reason != StopEmpty || len(res.History) != 0 {
		t.Errorf("empty run: cost=%d generations=%d reason=%s history=%v", res.Cost(), res.Generations, res.Reason, res.History)
	}
	if res.Best.Len() != 0 {
		t.Errorf("best has %d bicliques, want 0", res.Best.Len())
	}
	if res.Ratio() != 100 {
		t.Errorf("Ratio() = %d, want 100", res.Ratio())
	}

	p, err := bigraph.NewPricer(common.CompressorZlib, 9)
	if err != nil {
		t.Fatal(err)
	}
	_, base = bigraph.Build(nil, bigraph.WithPricer(p))
	res = run(t, testConfig(4), base)
	if res.Cost() != 0 || res.BaseCost != 0 || res.Reason != StopEmpty {
		t.Errorf("empty compressed run: cost=%d base=%d reason=%s", res.Cost(), res.BaseCost, res.Reason)
	}
}

func TestOptimizer_ImprovesStylesheet(t *testing.T) {
	_, base := bigraph.Build(stylesheet())
	res := run(t, testConfig(5), base)
	if res.Cost() >= res.BaseCost {
		t.Errorf("Cost() = %d, want below base %d", res.Cost(), res.BaseCost)
	}
	if res.Generations != len(res.History) {
		t.Errorf("Generations = %d, history has %d entries", res.Generations, len(res.History))
	}
}

func TestOptimizer_ElitismMonotonic(t *testing.T) {
	_, base := bigraph.Build(stylesheet())
	cfg := testConfig(6)
	cfg.EliteCount = 1
	cfg.MutationProbability = 0.5
	cfg.MergeProbability = 0.5

	res := run(t, cfg, base)
	for i := 1; i < len(res.History); i++ {
		if res.History[i] > res.History[i-1] {
			t.Fatalf("best cost increased at generation %d: %v", i, res.History)
		}
	}
	if last := res.History[len(res.History)-1]; last != res.Cost() {
		t.Errorf("last generation best %d differs from result %d", last, res.Cost())
	}
}

func TestOptimizer_Deterministic(t *testing.T) {
	runWith := func(workers int) *Result {
		_, base := bigraph.Build(stylesheet(), bigraph.WithSortedLabels(true))
		cfg := testConfig(7)
		cfg.Workers = workers
		cfg.MaxGenerations = 40
		return run(t, cfg, base)
	}

	first := runWith(1)
	for _, workers := range []int{1, 4} {
		got := runWith(workers)
		if !slices.Equal(got.History, first.History) {
			t.Errorf("workers=%d: history %v differs from %v", workers, got.History, first.History)
		}
		if got.Best.String() != first.Best.String() {
			t.Errorf("workers=%d: best covering differs:\n%s\nvs\n%s", workers, got.Best, first.Best)
		}
	}
}

func TestOptimizer_Stagnation(t *testing.T) {
	// nothing to merge or split
	_, base := bigraph.Build(rules([2]string{"a", "x:1"}, [2]string{"b", "y:2"}))
	cfg := testConfig(8)
	cfg.StagnationLimit = 5

	res := run(t, cfg, base)
	if res.Reason != StopStagnation || res.Generations != 5 {
		t.Errorf("Reason = %s, Generations = %d, want stagnation after 5", res.Reason, res.Generations)
	}
	if res.Cost() != res.BaseCost {
		t.Errorf("Cost() = %d, want base %d", res.Cost(), res.BaseCost)
	}
}

func TestOptimizer_GenerationBudget(t *testing.T) {
	_, base := bigraph.Build(stylesheet())
	cfg := testConfig(9)
	cfg.MaxGenerations = 3
	cfg.StagnationLimit = 100

	res := run(t, cfg, base)
	if res.Reason != StopGenerations || res.Generations != 3 || len(res.History) != 3 {
		t.Errorf("Reason = %s, Generations = %d, history %v", res.Reason, res.Generations, res.History)
	}

	cfg.MaxGenerations = 0
	cfg.StagnationLimit = DefaultConfig().StagnationLimit
	res = run(t, cfg, base)
	if res.Reason != StopStagnation || res.Generations < cfg.StagnationLimit || len(res.History) != res.Generations {
		t.Errorf("unlimited budget: Reason = %s, Generations = %d", res.Reason, res.Generations)
	}
	if res.Cost() >= res.BaseCost {
		t.Errorf("unlimited budget: Cost() = %d, want below base %d", res.Cost(), res.BaseCost)
	}
}

func TestOptimizer_Canceled(t *testing.T) {
	_, base := bigraph.Build(stylesheet())
	o, err := New(testConfig(10), nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := o.Run(ctx, base)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if res == nil || res.Reason != StopCanceled || res.Best == nil {
		t.Fatalf("Run() result = %+v, want best so far", res)
	}
	if res.Cost() != res.BaseCost || res.Generations != 0 {
		t.Errorf("Cost() = %d, Generations = %d", res.Cost(), res.Generations)
	}
	if o.State() != StateDone {
		t.Errorf("State() = %s, want done", o.State())
	}
}

func TestOptimizer_PopulationSize(t *testing.T) {
	_, base := bigraph.Build(stylesheet())
	for _, tt := range []struct{ size, elite int }{{7, 2}, {2, 0}, {30, 4}, {5, 5}} {
		cfg := testConfig(11)
		cfg.PopulationSize, cfg.EliteCount = tt.size, tt.elite
		o, err := New(cfg, nil)
		if err != nil {
			t.Fatalf("New() failed: %v", err)
		}

		population := []*bigraph.Covering{}
		for range tt.size {
			population = append(population, base.Copy())
		}
		for generation := range 3 {
			next, err := o.nextGeneration(context.Background(), population)
			if err != nil {
				t.Fatalf("nextGeneration() failed: %v", err)
			}
			if len(next) != tt.size {
				t.Fatalf("size=%d elite=%d generation %d: population %d", tt.size, tt.elite, generation, len(next))
			}
			for i := 1; i < len(next); i++ {
				if next[i].Cost() < next[i-1].Cost() {
					t.Fatalf("population is not sorted by cost")
				}
			}
			population = next
		}
	}
}

func TestNew(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 0
	if _, err := New(cfg, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New() error = %v, want ErrInvalidConfig", err)
	}

	o, err := New(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if o.Seed() == 0 {
		t.Error("clock based seed was not picked")
	}
	if o.State() != StateIdle {
		t.Errorf("State() = %s, want idle", o.State())
	}

	cfg = DefaultConfig()
	cfg.Seed = 12345
	if o, _ = New(cfg, nil); o.Seed() != 12345 {
		t.Errorf("Seed() = %d, want 12345", o.Seed())
	}
}
