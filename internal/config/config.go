// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (HUGBRIDGE_* runtime override)
//  2. Config file (~/.hugbridge/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Remote service: HuggingChat credentials, base URL, cookie cache
//   - Sampling: model, prompt template, temperature, top_p, max tokens
//   - Server: listen address for the conversation API
//
// Security: sensitive fields (password, cookies) are never logged; the
// config directory uses 0750 permissions and MarshalJSON masks secrets.
//
// Error handling uses sentinel errors checked with errors.Is(), wrapped
// with fmt.Errorf("%w: details", ErrXxx).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingCredentials indicates the remote service email or password is missing.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidTopP indicates the top_p value is out of range.
	ErrInvalidTopP = errors.New("invalid top_p")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidBaseURL indicates the remote service base URL is invalid.
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// ErrInvalidPrompt indicates the prompt template is empty.
	ErrInvalidPrompt = errors.New("invalid prompt template")

	// ErrInvalidConcurrency indicates the remote concurrency bound is out of range.
	ErrInvalidConcurrency = errors.New("invalid remote concurrency")
)

// Default sampling values. These match the remote service's own query
// defaults so an empty config file produces the stock behavior.
const (
	DefaultModel       = "meta-llama/Llama-3.3-70B-Instruct"
	DefaultTemperature = 0.9
	DefaultTopP        = 0.95
	DefaultMaxTokens   = 1024

	// DefaultBaseURL is the production HuggingChat endpoint. Overridable
	// for tests and self-hosted deployments.
	DefaultBaseURL = "https://huggingface.co"

	// DefaultServerAddr binds to loopback only; the bridge is meant to sit
	// next to the home-automation platform, not on the open network.
	DefaultServerAddr = "127.0.0.1:3412"

	// DefaultMaxConcurrentRemote bounds in-flight remote calls across all
	// requests. See internal/agent for the dispatcher that enforces it.
	DefaultMaxConcurrentRemote = 4

	// DefaultQueryTimeout is the per-request deadline for a remote query.
	DefaultQueryTimeout = 2 * time.Minute
)

// DefaultPrompt is the system prompt template rendered for every new
// conversation. It exposes one substitution variable, LocationName,
// carrying the platform's configured location name.
const DefaultPrompt = `You are the voice assistant for {{.LocationName}}, a smart home.
Answer the user's questions about the home and the world truthfully.
Keep your answers brief and suitable for being read aloud.`

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields, update MarshalJSON.
type Config struct {
	// Remote service credentials and endpoint
	Email    string `mapstructure:"email" json:"email"`
	Password string `mapstructure:"password" json:"password"` // SENSITIVE: masked in MarshalJSON
	BaseURL  string `mapstructure:"base_url" json:"base_url"`

	// CookieDir is where the authenticated session bundle is cached.
	CookieDir string `mapstructure:"cookie_dir" json:"cookie_dir"`

	// Sampling configuration, read-only per request
	Model       string  `mapstructure:"model" json:"model"`
	Prompt      string  `mapstructure:"prompt" json:"prompt"`
	Temperature float64 `mapstructure:"temperature" json:"temperature"`
	TopP        float64 `mapstructure:"top_p" json:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`

	// LocationName is the host platform's configured location, exposed to
	// the prompt template.
	LocationName string `mapstructure:"location_name" json:"location_name"`

	// Server configuration
	ServerAddr string `mapstructure:"server_addr" json:"server_addr"`

	// Remote I/O bounds
	MaxConcurrentRemote int           `mapstructure:"max_concurrent_remote" json:"max_concurrent_remote"`
	QueryTimeout        time.Duration `mapstructure:"query_timeout" json:"query_timeout"`

	// RemoteRPS enables a client-side rate limit on remote queries when > 0.
	RemoteRPS float64 `mapstructure:"remote_rps" json:"remote_rps"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".hugbridge")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v, configDir)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("cookie_dir", filepath.Join(configDir, "cookies"))
	v.SetDefault("model", DefaultModel)
	v.SetDefault("prompt", DefaultPrompt)
	v.SetDefault("temperature", DefaultTemperature)
	v.SetDefault("top_p", DefaultTopP)
	v.SetDefault("max_tokens", DefaultMaxTokens)
	v.SetDefault("location_name", "Home")
	v.SetDefault("server_addr", DefaultServerAddr)
	v.SetDefault("max_concurrent_remote", DefaultMaxConcurrentRemote)
	v.SetDefault("query_timeout", DefaultQueryTimeout)
	v.SetDefault("remote_rps", 0.0)
}

func bindEnvVariables(v *viper.Viper) {
	v.SetEnvPrefix("HUGBRIDGE")
	// Explicit bindings keep the mapping auditable.
	for _, key := range []string{
		"email", "password", "base_url", "cookie_dir",
		"model", "prompt", "temperature", "top_p", "max_tokens",
		"location_name", "server_addr", "max_concurrent_remote",
		"query_timeout", "remote_rps",
	} {
		_ = v.BindEnv(key)
	}
}

// MarshalJSON masks sensitive fields so a Config can be logged or dumped
// without leaking credentials.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config
	masked := alias(*c)
	if masked.Password != "" {
		masked.Password = "********"
	}
	return json.Marshal(masked)
}
