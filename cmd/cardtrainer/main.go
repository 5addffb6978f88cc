// Command cardtrainer runs self-play training, evaluates snapshots against
// a baseline, and inspects persisted checkpoints, per cmd/solver/main.go's
// kong-subcommand shape.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var cli struct {
	Debug bool `help:"enable debug logging"`

	Train   TrainCmd   `cmd:"" help:"run self-play workers and a background tournament"`
	Eval    EvalCmd    `cmd:"" help:"evaluate a snapshot against a baseline or another snapshot"`
	Inspect InspectCmd `cmd:"" help:"print a persisted checkpoint's topology"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("cardtrainer"),
		kong.Description("self-play trainer for the bundled reference card game"),
		kong.UsageOnError(),
	)

	setupLogger(cli.Debug)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch ctx.Command() {
	case "train":
		err = cli.Train.Run(runCtx)
	case "eval":
		err = cli.Eval.Run(runCtx)
	case "inspect <path>":
		err = cli.Inspect.Run(runCtx)
	default:
		log.Fatal().Msgf("unknown command: %s", ctx.Command())
	}
	if err != nil {
		log.Fatal().Err(err).Msgf("%s failed", ctx.Command())
	}
}

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}
