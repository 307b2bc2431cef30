// Package config loads service configuration from defaults, an optional YAML
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Reasoning providers
const (
	ProviderNone      = "none"
	ProviderHTTP      = "http"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Reasoning  ReasoningConfig  `koanf:"reasoning"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Similarity SimilarityConfig `koanf:"similarity"`
	Slack      SlackConfig      `koanf:"slack"`
	Log        LogConfig        `koanf:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	HTTPPort        int           `koanf:"http_port"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig selects the record store backend
type DatabaseConfig struct {
	Driver string `koanf:"driver"` // sqlite or postgres
	DSN    string `koanf:"dsn"`
}

// ReasoningConfig configures the optional external reasoning adapter
type ReasoningConfig struct {
	Provider      string        `koanf:"provider"`
	APIKey        string        `koanf:"api_key"`
	BaseURL       string        `koanf:"base_url"`
	Model         string        `koanf:"model"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	Burst         int           `koanf:"burst"`
	CacheSize     int           `koanf:"cache_size"`
}

// ClassifierConfig optionally replaces the built-in rule table
type ClassifierConfig struct {
	RulesFile string `koanf:"rules_file"`
}

// SimilarityConfig tunes retrieval
type SimilarityConfig struct {
	TopK int `koanf:"top_k"`
}

// SlackConfig enables chat notifications when both fields are set
type SlackConfig struct {
	BotToken string `koanf:"bot_token"`
	Channel  string `koanf:"channel"`
	APIURL   string `koanf:"api_url"`
}

// LogConfig configures the root logger
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Server: ServerConfig{
			HTTPPort:        3000,
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "incidents.db",
		},
		Reasoning: ReasoningConfig{
			Provider:      ProviderNone,
			Timeout:       30 * time.Second,
			RatePerSecond: 2,
			Burst:         5,
			CacheSize:     256,
		},
		Similarity: SimilarityConfig{TopK: 3},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// knownSections are the top-level keys environment variables may set
var knownSections = map[string]bool{
	"server":     true,
	"database":   true,
	"reasoning":  true,
	"classifier": true,
	"similarity": true,
	"slack":      true,
	"log":        true,
}

// Load builds the configuration. path may be empty; a missing file at an
// explicit path is an error.
//
// Environment variables map as SECTION_FIELD_NAME -> section.field_name:
//
//	SERVER_HTTP_PORT   -> server.http_port
//	REASONING_API_KEY  -> reasoning.api_key
//	SERVER_CORS_ORIGINS=a,b -> server.cors_origins [a b]
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Reasoning.Provider = strings.ToLower(strings.TrimSpace(cfg.Reasoning.Provider))
	if cfg.Reasoning.Provider == "" {
		cfg.Reasoning.Provider = ProviderNone
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps an environment variable to a config key, skipping variables
// outside the known sections
func envKey(key, value string) (string, interface{}) {
	parts := strings.SplitN(strings.ToLower(key), "_", 2)
	if len(parts) != 2 || !knownSections[parts[0]] || parts[1] == "" {
		return "", nil
	}
	k := parts[0] + "." + parts[1]
	if k == "server.cors_origins" {
		return k, splitList(value)
	}
	return k, value
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("server.http_port must be between 1 and 65535, got %d", c.Server.HTTPPort))
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}

	switch c.Reasoning.Provider {
	case ProviderNone:
	case ProviderHTTP, ProviderAnthropic, ProviderOpenAI:
		if strings.TrimSpace(c.Reasoning.APIKey) == "" {
			errs = append(errs, fmt.Errorf("reasoning.api_key is required for provider %q", c.Reasoning.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("reasoning.provider must be one of none, http, anthropic, openai, got %q", c.Reasoning.Provider))
	}
	if c.Reasoning.Timeout <= 0 {
		errs = append(errs, errors.New("reasoning.timeout must be positive"))
	}
	if c.Reasoning.RatePerSecond < 0 {
		errs = append(errs, errors.New("reasoning.rate_per_second must not be negative"))
	}
	if c.Reasoning.RatePerSecond > 0 && c.Reasoning.Burst < 1 {
		errs = append(errs, errors.New("reasoning.burst must be at least 1 when rate limiting is enabled"))
	}
	if c.Reasoning.CacheSize < 0 {
		errs = append(errs, errors.New("reasoning.cache_size must not be negative"))
	}

	if c.Similarity.TopK < 1 {
		errs = append(errs, fmt.Errorf("similarity.top_k must be positive, got %d", c.Similarity.TopK))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// SlackEnabled reports whether notifications should be sent
func (c *Config) SlackEnabled() bool {
	return strings.TrimSpace(c.Slack.BotToken) != "" && strings.TrimSpace(c.Slack.Channel) != ""
}
