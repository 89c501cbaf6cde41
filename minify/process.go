package minify

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"csscover/bigraph"
	"csscover/config"
	"csscover/css"
	"csscover/genetic"
)

// Outcome of a single optimization.
type Outcome struct {
	Sheet  *css.Stylesheet
	Graph  *bigraph.Graph
	Result *genetic.Result
	// Output is the optimized stylesheet as it should be written.
	Output []byte
	// TimedOut is set when configured time limit stopped the search early.
	TimedOut bool
}

// Process parses sources concatenated in order, builds selector/declaration
// graph and searches for the cheapest covering of it. It is independent of
// command line handling.
func Process(ctx context.Context, sources []Source, cfg *config.Config, log *zap.Logger) (*Outcome, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var (
		data bytes.Buffer
		name string
	)
	for _, src := range sources {
		data.Write(src.Data)
		data.WriteByte('\n')
	}
	if len(sources) == 1 {
		name = sources[0].Name
	}

	sheet := css.NewParser(log).Parse(data.Bytes(), name)
	for _, w := range sheet.Warnings {
		log.Warn("Stylesheet problem, continuing", zap.String("warning", w))
	}

	pricer, err := cfg.Cost.Pricer()
	if err != nil {
		return nil, fmt.Errorf("unable to prepare cost function: %w", err)
	}
	graph, base := bigraph.Build(Rules(sheet),
		bigraph.WithPricer(pricer),
		bigraph.WithSortedLabels(cfg.Output.SortLabels),
		bigraph.WithRuleTerminator(cfg.Output.Terminator()))

	log.Info("Stylesheet parsed",
		zap.Int("sources", len(sources)),
		zap.Int("rules", len(sheet.Rules)),
		zap.Int("at-rules", len(sheet.AtRules)),
		zap.Int("declaration entries", sheet.DeclarationCount()),
		zap.Int("selectors", graph.Len(bigraph.Selector)),
		zap.Int("declarations", graph.Len(bigraph.Declaration)),
		zap.Int("edges", graph.EdgeCount()),
		zap.Int("base cost", base.Cost()),
		zap.Stringer("pricing", pricer))

	opt, err := genetic.New(cfg.Optimizer.Genetic(), log)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare optimizer: %w", err)
	}

	runCtx := ctx
	if limit := cfg.Optimizer.TimeLimit; limit > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	out := &Outcome{Sheet: sheet, Graph: graph}
	if out.Result, err = opt.Run(runCtx, base); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, err
		}
		out.TimedOut = true
		log.Warn("Time limit reached, using best covering found so far",
			zap.Duration("limit", cfg.Optimizer.TimeLimit), zap.Int("generations", out.Result.Generations))
	}

	var buf bytes.Buffer
	if cfg.Output.PreserveAtRules {
		if _, err := sheet.WriteAtRules(&buf, cfg.Output.Terminator()); err != nil {
			return nil, fmt.Errorf("unable to write at-rules: %w", err)
		}
	}
	if _, err := out.Result.Best.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("unable to write optimized rules: %w", err)
	}
	out.Output = buf.Bytes()
	return out, nil
}

// Rules converts parsed rules to graph input. Declarations are identified by
// their normalized text.
func Rules(sheet *css.Stylesheet) []bigraph.Rule {
	rules := make([]bigraph.Rule, 0, len(sheet.Rules))
	for _, r := range sheet.Rules {
		rules = append(rules, bigraph.Rule{Selectors: r.Selectors, Declarations: r.DeclarationKeys()})
	}
	return rules
}
