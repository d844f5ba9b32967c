package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"scdb-dashboard/app"
	"scdb-dashboard/config"

	"github.com/rs/zerolog"
)

func main() {
	foundEnv := config.LoadDotEnv()

	cfg, err := config.FromEnv()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger := config.NewLogger(cfg.Mode, os.Stdout)
	if !foundEnv {
		logger.Warn().Msg("No .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to start dashboard")
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}
