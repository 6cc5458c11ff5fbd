package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Himanshu5634/whiteboard-backend/internal/server"
	"github.com/Himanshu5634/whiteboard-backend/pkg/config"
	"github.com/Himanshu5634/whiteboard-backend/pkg/logging"
	"github.com/spf13/cobra"
)

var configName string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the whiteboard synchronization server",
	Long: `Start the server. Configuration is read from <config>.yaml in the
working directory, overridable with WHITEBOARD_* environment variables.
The server runs until interrupted (Ctrl+C) or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bootstrap logger until the configured level is known.
		logger := logging.New(logging.LevelInfo)

		cfg, err := config.Load(logger, configName)
		if err != nil {
			logger.Error("Failed to load configuration", slog.Any("error", err))
			return err
		}

		logger = logging.New(logging.ParseLevel(cfg.Logging.Level))
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := server.NewApp(logger, ctx, cfg)
		if err != nil {
			logger.Error("Failed to initialize server", slog.Any("error", err))
			return err
		}
		if err := app.Run(); err != nil {
			logger.Error("Application run failed", slog.Any("error", err))
			return err
		}
		logger.Info("Application shut down successfully.")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configName, "config", "c", "config", "config file name (without extension)")
}
