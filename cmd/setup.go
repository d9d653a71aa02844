package cmd

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/phoenixr49/hugbridge/internal/agent"
	"github.com/phoenixr49/hugbridge/internal/auth"
	"github.com/phoenixr49/hugbridge/internal/config"
	"github.com/phoenixr49/hugbridge/internal/hugchat"
	"github.com/phoenixr49/hugbridge/internal/log"
	"github.com/phoenixr49/hugbridge/internal/metrics"
	"github.com/phoenixr49/hugbridge/internal/session"
)

// buildAgent wires the full turn-processing stack from configuration:
// session bundle manager, chat client factory, transcript store and the
// bounded dispatcher. m may be nil to run without instrumentation.
func buildAgent(cfg *config.Config, logger log.Logger, m *metrics.Metrics) (*agent.Agent, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, fmt.Errorf("checking credentials: %w", err)
	}

	provider := auth.NewProvider(cfg.BaseURL, logger)
	bundles := auth.NewManager(provider, cfg.CookieDir, cfg.Email, cfg.Password, logger)

	// One limiter shared across all clients so the per-account quota
	// holds regardless of how many turns are in flight.
	var limiter *rate.Limiter
	if cfg.RemoteRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RemoteRPS), 1)
	}

	factory := func(bundle *auth.Bundle) (agent.ChatClient, error) {
		return hugchat.New(hugchat.Config{
			BaseURL: cfg.BaseURL,
			Bundle:  bundle,
			Model:   cfg.Model,
			Limiter: limiter,
			Logger:  logger,
		})
	}

	return agent.New(agent.Config{
		Store:        session.NewStore(),
		Bundles:      bundles,
		NewClient:    factory,
		Dispatcher:   agent.NewDispatcher(int64(cfg.MaxConcurrentRemote)),
		Logger:       logger,
		Prompt:       cfg.Prompt,
		LocationName: cfg.LocationName,
		Temperature:  cfg.Temperature,
		TopP:         cfg.TopP,
		MaxTokens:    cfg.MaxTokens,
		QueryTimeout: cfg.QueryTimeout,
		Metrics:      m,
	})
}
