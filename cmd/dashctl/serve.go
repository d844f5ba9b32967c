package main

import (
	"os/signal"
	"syscall"

	"scdb-dashboard/app"
	"scdb-dashboard/config"

	"github.com/spf13/cobra"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to listen on (default: $PORT or 8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	cfg.DatasetPath = datasetPath
	cfg.LayoutPath = layoutPath
	if debug {
		cfg.Mode = config.ModeDebug
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	logger := config.NewLogger(cfg.Mode, cmd.OutOrStdout())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}
