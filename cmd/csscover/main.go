package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"csscover/minify"
	"csscover/misc"
	"csscover/state"
)

// newApp assembles command tree. Output streams are parameters so commands
// could be run in tests.
func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "reduces size of CSS stylesheets by regrouping selectors and declarations",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Reader:          stdin,
		Writer:          stdout,
		ErrWriter:       stderr,
		Before:          startRun,
		After:           finishRun,
		OnUsageError:    passUsageError,
		ExitErrHandler:  logFailure,
		CommandNotFound: ignoreCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log everything and pack inputs, results and logs into report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:               "optimize",
				Usage:              "Optimizes stylesheet(s) and writes single result",
				OnUsageError:       passUsageError,
				Action:             minify.Run,
				Flags:              minify.Flags(),
				ArgsUsage:          "SOURCE [SOURCE...]",
				CustomHelpTemplate: minify.HelpTemplate,
			},
			dumpConfigCommand(),
		},
	}
}

func main() {
	// interrupted search writes nothing, partial result is only logged
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	err := newApp(os.Stdin, os.Stdout, os.Stderr).Run(ctx, os.Args)
	stop()
	if err != nil {
		// without log (bad arguments) or after it was closed error goes to
		// stderr directly
		if !state.EnvFromContext(ctx).ErrorLogged {
			fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
		}
		os.Exit(1)
	}
}
