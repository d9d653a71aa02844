package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/phoenixr49/hugbridge/internal/auth"
	"github.com/phoenixr49/hugbridge/internal/config"
	"github.com/phoenixr49/hugbridge/internal/log"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to HuggingChat and cache the session cookies",
	Long: `login authenticates against the remote service with the configured
credentials and writes the session bundle to the cookie cache, so the
server's first turn does not pay the login round-trip.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogin(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.RequireCredentials(); err != nil {
		return fmt.Errorf("checking credentials: %w", err)
	}

	logger := log.New(log.Config{Level: slog.LevelInfo})
	provider := auth.NewProvider(cfg.BaseURL, logger)

	bundle, err := provider.Login(ctx, cfg.Email, cfg.Password)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	if err := auth.SaveBundle(cfg.CookieDir, bundle); err != nil {
		return fmt.Errorf("saving session bundle: %w", err)
	}

	fmt.Printf("Logged in as %s; session cached in %s\n", cfg.Email, cfg.CookieDir)
	return nil
}
