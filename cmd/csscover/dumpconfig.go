package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"csscover/config"
	"csscover/state"
)

func dumpConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "dumpconfig",
		Usage: "Dumps either default or actual configuration (YAML)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
		},
		OnUsageError: passUsageError,
		Action:       dumpConfig,
		ArgsUsage:    "DESTINATION",
		CustomHelpTemplate: cli.CommandHelpTemplate + `
DESTINATION:
    file name to write configuration to, if absent - STDOUT

Writes configuration actually used by optimize: embedded defaults overlaid
with values from --config file. Use --default to see embedded template with
its comments.
`,
	}
}

// dumpConfig writes either embedded template or effective configuration.
func dumpConfig(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Logger("config")

	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		kind = "actual"
		data []byte
		err  error
	)
	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	dst := cmd.Args().First()
	if len(dst) == 0 {
		log.Info("Writing configuration", zap.String("state", kind), zap.String("file", "STDOUT"))
		if _, err := cmd.Root().Writer.Write(data); err != nil {
			return fmt.Errorf("unable to write configuration: %w", err)
		}
		return nil
	}

	log.Info("Writing configuration", zap.String("state", kind), zap.String("file", dst))
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("unable to write configuration to '%s': %w", dst, err)
	}
	return nil
}
