// Package config loads and validates Pulsebot's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pulsepro/pulsebot/internal/digest"
	"github.com/pulsepro/pulsebot/internal/logging"
	"github.com/pulsepro/pulsebot/internal/session"
	"github.com/pulsepro/pulsebot/internal/telegram"
)

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Config represents the main configuration
type Config struct {
	Version  string           `yaml:"version"`
	Telegram *telegram.Config `yaml:"telegram"`
	Store    *StoreConfig     `yaml:"store"`
	Session  *SessionConfig   `yaml:"session"`
	Digest   *digest.Config   `yaml:"digest"`
	Logging  *logging.Config  `yaml:"logging"`
}

// StoreConfig holds task store settings
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SessionConfig holds result cache settings
type SessionConfig struct {
	TTLMinutes int                  `yaml:"ttl_minutes"`
	Backend    string               `yaml:"backend"` // memory or redis
	Redis      *session.RedisConfig `yaml:"redis"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Version:  "1.0",
		Telegram: telegram.DefaultConfig(),
		Store: &StoreConfig{
			Path: filepath.Join(homeDir, ".pulsebot", "data"),
		},
		Session: &SessionConfig{
			TTLMinutes: 15,
			Backend:    SessionBackendMemory,
		},
		Digest:  digest.DefaultConfig(),
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil // Return defaults if no config file
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Store != nil {
		config.Store.Path = expandPath(config.Store.Path)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default configuration path
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".pulsebot", "config.yaml")
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram == nil {
		return fmt.Errorf("telegram configuration is required")
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required when the adapter is enabled")
	}
	if c.Session != nil {
		switch c.Session.Backend {
		case "", SessionBackendMemory:
		case SessionBackendRedis:
			if c.Session.Redis == nil || c.Session.Redis.Addr == "" {
				return fmt.Errorf("redis address is required for the redis session backend")
			}
		default:
			return fmt.Errorf("unknown session backend: %s", c.Session.Backend)
		}
	}
	return nil
}
