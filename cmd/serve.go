package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phoenixr49/hugbridge/api"
	"github.com/phoenixr49/hugbridge/internal/config"
	"github.com/phoenixr49/hugbridge/internal/log"
	"github.com/phoenixr49/hugbridge/internal/metrics"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the conversation HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// runServe wires the agent stack and serves the conversation API until
// SIGINT or SIGTERM.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{Level: slog.LevelInfo, JSON: true})
	slog.SetDefault(logger)
	logger.Info("starting hugbridge", "version", AppVersion, "model", cfg.Model)

	m := metrics.New()

	ag, err := buildAgent(cfg, logger, m)
	if err != nil {
		return fmt.Errorf("initializing agent: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	addr := serveAddr
	if addr == "" {
		addr = cfg.ServerAddr
	}

	srv := api.NewServer(ag, m, AppVersion, logger)
	if err := srv.Run(ctx, addr); err != nil {
		return fmt.Errorf("HTTP server: %w", err)
	}
	return nil
}
