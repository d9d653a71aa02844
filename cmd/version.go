package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phoenixr49/hugbridge/internal/config"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	fmt.Printf("hugbridge %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Println("Configuration:")
	fmt.Printf("  Model: %s\n", cfg.Model)
	fmt.Printf("  Base URL: %s\n", cfg.BaseURL)
	fmt.Printf("  Temperature: %.2f\n", cfg.Temperature)
	fmt.Printf("  Top-p: %.2f\n", cfg.TopP)
	fmt.Printf("  Max tokens: %d\n", cfg.MaxTokens)
	fmt.Printf("  Server address: %s\n", cfg.ServerAddr)

	if cfg.Email != "" {
		fmt.Printf("  Account: %s (configured)\n", cfg.Email)
	} else {
		fmt.Println("  Account: not set")
		fmt.Println()
		fmt.Println("Hint: set HUGBRIDGE_EMAIL and HUGBRIDGE_PASSWORD, or add")
		fmt.Println("  email/password to ~/.hugbridge/config.yaml")
	}

	return nil
}
