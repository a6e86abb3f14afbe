// Package config provides configuration for the debate bridge.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the bridge configuration.
type Config struct {
	// Server settings
	HTTPPort int
	RPCPort  int

	// Upstream deliberation service
	UpstreamURL    string
	UpstreamAPIKey string

	// Publishing
	PublishURL    string
	PublishAPIKey string

	// Storage
	DatabaseURL string
	RedisURL    string

	// Timeouts
	PollTimeout    time.Duration
	MaxPollTimeout time.Duration
	StartTimeout   time.Duration
	StreamTimeout  time.Duration
	IdleTimeout    time.Duration

	// Policy limits
	MaxAgents int

	// Logging
	LogLevel  string
	LogFormat string
}

var defaults = map[string]any{
	"HTTP_PORT":           8080,
	"RPC_PORT":            8081,
	"UPSTREAM_URL":        "http://localhost:9000",
	"UPSTREAM_API_KEY":    "",
	"PUBLISH_URL":         "",
	"PUBLISH_API_KEY":     "",
	"DATABASE_URL":        "file:debatebridge.db?cache=shared&mode=rwc",
	"REDIS_URL":           "",
	"POLL_TIMEOUT_MS":     15000,
	"MAX_POLL_TIMEOUT_MS": 55000,
	"START_TIMEOUT_MS":    30000,
	"STREAM_TIMEOUT_MS":   3600000,
	"IDLE_TIMEOUT_MS":     600000,
	"MAX_AGENTS":          12,
	"LOG_LEVEL":           "info",
	"LOG_FORMAT":          "text",
}

// Load reads configuration from the environment and, when CONFIG_FILE is set,
// from that file. Environment variables take precedence over the file.
func Load() (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if err := v.BindEnv("CONFIG_FILE"); err != nil {
		return nil, err
	}
	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		HTTPPort:       v.GetInt("HTTP_PORT"),
		RPCPort:        v.GetInt("RPC_PORT"),
		UpstreamURL:    v.GetString("UPSTREAM_URL"),
		UpstreamAPIKey: v.GetString("UPSTREAM_API_KEY"),
		PublishURL:     v.GetString("PUBLISH_URL"),
		PublishAPIKey:  v.GetString("PUBLISH_API_KEY"),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		RedisURL:       v.GetString("REDIS_URL"),
		PollTimeout:    millis(v, "POLL_TIMEOUT_MS"),
		MaxPollTimeout: millis(v, "MAX_POLL_TIMEOUT_MS"),
		StartTimeout:   millis(v, "START_TIMEOUT_MS"),
		StreamTimeout:  millis(v, "STREAM_TIMEOUT_MS"),
		IdleTimeout:    millis(v, "IDLE_TIMEOUT_MS"),
		MaxAgents:      v.GetInt("MAX_AGENTS"),
		LogLevel:       strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:      strings.ToLower(v.GetString("LOG_FORMAT")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func millis(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt64(key)) * time.Millisecond
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT out of range: %d", c.HTTPPort))
	}
	if c.RPCPort < 0 || c.RPCPort > 65535 {
		errs = append(errs, fmt.Errorf("RPC_PORT out of range: %d", c.RPCPort))
	}
	if c.UpstreamURL == "" {
		errs = append(errs, errors.New("UPSTREAM_URL is required"))
	}
	if c.PollTimeout < 0 {
		errs = append(errs, errors.New("POLL_TIMEOUT_MS must not be negative"))
	}
	if c.MaxPollTimeout <= 0 {
		errs = append(errs, errors.New("MAX_POLL_TIMEOUT_MS must be positive"))
	}
	if c.PollTimeout > c.MaxPollTimeout {
		errs = append(errs, errors.New("POLL_TIMEOUT_MS exceeds MAX_POLL_TIMEOUT_MS"))
	}
	if c.StartTimeout <= 0 {
		errs = append(errs, errors.New("START_TIMEOUT_MS must be positive"))
	}
	if c.StreamTimeout <= 0 {
		errs = append(errs, errors.New("STREAM_TIMEOUT_MS must be positive"))
	}
	if c.IdleTimeout < 0 {
		errs = append(errs, errors.New("IDLE_TIMEOUT_MS must not be negative"))
	}
	if c.MaxAgents <= 0 {
		errs = append(errs, errors.New("MAX_AGENTS must be positive"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
