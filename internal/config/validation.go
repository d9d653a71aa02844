package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Sampling bounds. The remote service rejects values outside these
// ranges, so they are enforced locally with clear error messages.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0

	MinMaxTokens = 1
	MaxMaxTokens = 8192

	MaxConcurrentRemoteLimit = 64
)

// Validate checks configuration values and returns the first problem
// found. Credentials are NOT required here; they are checked separately
// by RequireCredentials so read-only commands work without them.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: model must not be empty", ErrInvalidModelName)
	}

	if strings.TrimSpace(c.Prompt) == "" {
		return fmt.Errorf("%w: prompt template must not be empty", ErrInvalidPrompt)
	}

	if c.Temperature < MinTemperature || c.Temperature > MaxTemperature {
		return fmt.Errorf("%w: %.2f not in [%.1f, %.1f]",
			ErrInvalidTemperature, c.Temperature, MinTemperature, MaxTemperature)
	}

	if c.TopP <= 0 || c.TopP > 1 {
		return fmt.Errorf("%w: %.2f not in (0, 1]", ErrInvalidTopP, c.TopP)
	}

	if c.MaxTokens < MinMaxTokens || c.MaxTokens > MaxMaxTokens {
		return fmt.Errorf("%w: %d not in [%d, %d]",
			ErrInvalidMaxTokens, c.MaxTokens, MinMaxTokens, MaxMaxTokens)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}

	if c.MaxConcurrentRemote < 1 || c.MaxConcurrentRemote > MaxConcurrentRemoteLimit {
		return fmt.Errorf("%w: %d not in [1, %d]",
			ErrInvalidConcurrency, c.MaxConcurrentRemote, MaxConcurrentRemoteLimit)
	}

	return nil
}

// RequireCredentials verifies that the remote service credentials are
// configured. Called by commands that actually talk to the service.
func (c *Config) RequireCredentials() error {
	if c == nil {
		return ErrConfigNil
	}
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return fmt.Errorf("%w: set email and password in config or HUGBRIDGE_EMAIL/HUGBRIDGE_PASSWORD", ErrMissingCredentials)
	}
	return nil
}
