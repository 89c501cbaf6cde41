// Package minify implements optimize command: it loads stylesheets, searches
// for the cheapest equivalent set of rules and writes it out.
package minify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"csscover/common"
	"csscover/config"
	"csscover/state"
)

// Run is the action of optimize command.
func Run(ctx context.Context, cmd *cli.Command) (err error) {

	env := state.EnvFromContext(ctx)
	log := env.Logger("minify")

	if cmd.Args().Len() == 0 {
		return errors.New("no input sources specified")
	}
	if err := applyOverrides(cmd, env.Cfg); err != nil {
		return err
	}

	// content without BOM and archive entry names are decoded with forced
	// code page when requested
	if cp := cmd.String("charset"); len(cp) > 0 {
		if name, err := env.SetCodePage(cp); err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.Error(err))
		} else {
			log.Debug("Forcefully decoding stylesheets", zap.String("charset", name))
		}
	}

	dst := cmd.String("output")
	log.Info("Processing starting", zap.Strings("sources", cmd.Args().Slice()), zap.String("destination", destinationName(dst)), zap.String("run", env.RunID))
	defer func(start time.Time) {
		if err == nil {
			log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
		}
	}(time.Now())

	sources, err := NewLoader(cmd.Root().Reader, env.CodePage, log).Load(ctx, cmd.Args().Slice())
	if err != nil {
		return fmt.Errorf("unable to load stylesheets: %w", err)
	}
	storeSources(env.Rpt, sources)

	out, err := Process(ctx, sources, env.Cfg, log)
	if err != nil {
		return fmt.Errorf("unable to optimize stylesheets: %w", err)
	}
	storeOutcome(env.Rpt, out, log)

	if err := write(dst, cmd.Root().Writer, out.Output); err != nil {
		return err
	}

	res := out.Result
	log.Info("Optimization summary",
		zap.Int("final cost", res.Cost()),
		zap.Int("base cost", res.BaseCost),
		zap.String("ratio", fmt.Sprintf("%d%%", res.Ratio())),
		zap.Int("rules", res.Best.Len()),
		zap.Int("generations", res.Generations),
		zap.String("reason", string(res.Reason)),
		zap.Uint64("seed", res.Seed),
		zap.Duration("search", res.Elapsed))
	return nil
}

// applyOverrides puts command line values on top of configuration.
func applyOverrides(cmd *cli.Command, cfg *config.Config) error {
	if cmd.IsSet("gzip") {
		cfg.Cost.Level = cmd.Int("gzip")
	}
	if cmd.IsSet("compressor") {
		c, err := common.ParseCompressor(strings.ToLower(cmd.String("compressor")))
		if err != nil {
			return fmt.Errorf("bad compressor (supported: %s): %w", strings.Join(common.CompressorNames(), ", "), err)
		}
		cfg.Cost.Compressor = c
	}
	if cmd.IsSet("seed") {
		cfg.Optimizer.Seed = cmd.Uint64("seed")
	}
	if cmd.IsSet("generations") {
		cfg.Optimizer.MaxGenerations = cmd.Int("generations")
	}
	if cmd.IsSet("population") {
		cfg.Optimizer.PopulationSize = cmd.Int("population")
		cfg.Optimizer.EliteCount = min(cfg.Optimizer.EliteCount, cfg.Optimizer.PopulationSize)
	}
	if cmd.IsSet("workers") {
		cfg.Optimizer.Workers = cmd.Int("workers")
	}
	if cmd.IsSet("time-limit") {
		cfg.Optimizer.TimeLimit = cmd.Duration("time-limit")
	}
	return nil
}

func destinationName(dst string) string {
	if len(dst) == 0 {
		return "STDOUT"
	}
	return dst
}

func write(dst string, stdout io.Writer, data []byte) error {
	if len(dst) == 0 {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("unable to write optimized stylesheet: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create destination directory for '%s': %w", dst, err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("unable to write optimized stylesheet: %w", err)
	}
	return nil
}

func storeSources(rpt *config.Report, sources []Source) {
	if rpt == nil {
		return
	}
	for i, src := range sources {
		name := fmt.Sprintf("input/%03d-%s", i, filepath.Base(filepath.FromSlash(src.Name)))
		if len(src.Path) > 0 {
			rpt.Store(name, src.Path)
			continue
		}
		rpt.StoreData(name, src.Data)
	}
}

func storeOutcome(rpt *config.Report, out *Outcome, log *zap.Logger) {
	if rpt == nil {
		return
	}
	rpt.StoreData("result.css", out.Output)
	if err := rpt.StoreWriter("parsed.css", func(w io.Writer) error {
		_, err := out.Sheet.WriteTo(w)
		return err
	}); err != nil {
		log.Warn("Unable to store parsed stylesheet in the report", zap.Error(err))
	}
	rpt.StoreData("covering.txt", []byte(out.Result.Best.Dump()))
	if len(out.Sheet.Warnings) > 0 {
		rpt.StoreData("warnings.txt", []byte(strings.Join(out.Sheet.Warnings, "\n")+"\n"))
	}
}
