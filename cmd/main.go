package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"ocsf-standard-creator/internal/app"
	"ocsf-standard-creator/internal/apperrors"
	"ocsf-standard-creator/internal/config"
	"ocsf-standard-creator/internal/observability/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:], nil, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return apperrors.ExitCode(err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg)
	defer application.Shutdown()

	report, err := application.Run(ctx)
	if err != nil {
		return apperrors.ExitCode(err)
	}

	log.Info().
		Str("runId", report.RunID).
		Str("output", report.OutputPath).
		Msg("Default document written")
	return 0
}
