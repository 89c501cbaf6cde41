package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"csscover/config"
	"csscover/misc"
	"csscover/state"
)

// startRun loads configuration and sets up logging and debug report once
// command line is parsed.
func startRun(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.NArg() == 0 {
		return ctx, nil
	}
	env := state.EnvFromContext(ctx)

	cfgFile := cmd.String("config")
	cfg, err := config.LoadConfiguration(cfgFile)
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	env.Cfg = cfg

	if cmd.Bool("debug") {
		if env.Rpt, err = cfg.Reporting.Prepare(env.RunID); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug report: %w", err)
		}
		if len(cfgFile) > 0 {
			storeConfig(env.Rpt, cfg, filepath.Base(cfgFile))
		}
	}

	log, err := cfg.Logging.Prepare(env.Rpt)
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.SetLogger(log)

	log.Debug("Program started",
		zap.String("run", env.RunID),
		zap.Strings("args", os.Args),
		zap.String("ver", misc.GetVersion()),
		zap.String("hash", misc.GetGitHash()),
		zap.String("runtime", runtime.Version()),
		zap.Bool("defaults", len(cfgFile) == 0))
	if env.Rpt != nil {
		log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	return ctx, nil
}

// storeConfig puts effective configuration into report, source file name is
// kept so it is easy to match.
func storeConfig(rpt *config.Report, cfg *config.Config, name string) {
	if data, err := config.Dump(cfg); err == nil {
		rpt.StoreData("config/"+name, data)
	}
}

// finishRun closes log and report. From here on errors could only be
// printed to stderr.
func finishRun(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if env.Log != nil {
		env.Log.Debug("Program ended", zap.String("run", env.RunID), zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}
	env.ReleaseLogger()

	var err error
	if env.Rpt != nil {
		if e := env.Rpt.Close(); e != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", e))
		}
	}
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		panicLog := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		err = multierr.Append(err, removeIfEmpty(panicLog))
	}
	return err
}

func removeIfEmpty(name string) error {
	fi, err := os.Stat(name)
	if err != nil || fi.Size() > 0 {
		return nil
	}
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("unable to remove empty panic log file '%s': %w", name, err)
	}
	return nil
}

// logFailure runs before finishRun, so error still could be logged.
func logFailure(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)
	if env.Log == nil {
		return
	}
	env.Log.Error("Program ended with error", zap.Error(err))
	env.ErrorLogged = true
}

// passUsageError leaves reporting to logFailure or main.
func passUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func ignoreCommand(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Logger("cli").Warn("Unknown command, nothing to do", zap.String("command", name))
}
