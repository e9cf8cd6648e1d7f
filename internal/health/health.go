// Package health runs doctor-style checks over Pulsebot's configuration
// and local state.
package health

import (
	"fmt"
	"os"

	"github.com/pulsepro/pulsebot/internal/config"
)

// Status represents the outcome of one check
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
	StatusDisabled
)

// Check represents a health check result
type Check struct {
	Name    string
	Status  Status
	Message string
	Fix     string
}

// Report contains all health check results
type Report struct {
	Checks []Check
}

// Healthy reports whether no check failed outright.
func (r *Report) Healthy() bool {
	for _, c := range r.Checks {
		if c.Status == StatusError {
			return false
		}
	}
	return true
}

// RunChecks performs all health checks for the given configuration.
func RunChecks(cfg *config.Config) *Report {
	return &Report{
		Checks: []Check{
			checkConfig(cfg),
			checkTelegram(cfg),
			checkStore(cfg),
			checkSession(cfg),
		},
	}
}

// checkConfig validates the configuration itself.
func checkConfig(cfg *config.Config) Check {
	if err := cfg.Validate(); err != nil {
		return Check{
			Name:    "config",
			Status:  StatusError,
			Message: err.Error(),
			Fix:     "Edit " + config.DefaultConfigPath(),
		}
	}
	return Check{Name: "config", Status: StatusOK, Message: "valid"}
}

// checkTelegram verifies the adapter has what it needs to start.
func checkTelegram(cfg *config.Config) Check {
	if cfg.Telegram == nil || !cfg.Telegram.Enabled {
		return Check{Name: "telegram", Status: StatusDisabled, Message: "adapter disabled"}
	}
	if cfg.Telegram.BotToken == "" {
		return Check{
			Name:    "telegram",
			Status:  StatusError,
			Message: "bot token missing",
			Fix:     "Set telegram.bot_token (or the env var it expands from)",
		}
	}
	return Check{Name: "telegram", Status: StatusOK, Message: "configured"}
}

// checkStore verifies the data directory is usable.
func checkStore(cfg *config.Config) Check {
	if cfg.Store == nil || cfg.Store.Path == "" {
		return Check{
			Name:    "store",
			Status:  StatusError,
			Message: "no store path configured",
			Fix:     "Set store.path",
		}
	}

	if err := os.MkdirAll(cfg.Store.Path, 0755); err != nil {
		return Check{
			Name:    "store",
			Status:  StatusError,
			Message: fmt.Sprintf("data directory not writable: %v", err),
			Fix:     "Check permissions on " + cfg.Store.Path,
		}
	}
	return Check{Name: "store", Status: StatusOK, Message: cfg.Store.Path}
}

// checkSession reports which result cache backend will be used.
func checkSession(cfg *config.Config) Check {
	if cfg.Session == nil || cfg.Session.Backend == "" || cfg.Session.Backend == config.SessionBackendMemory {
		return Check{Name: "session", Status: StatusOK, Message: "in-memory cache"}
	}
	if cfg.Session.Backend == config.SessionBackendRedis {
		if cfg.Session.Redis == nil || cfg.Session.Redis.Addr == "" {
			return Check{
				Name:    "session",
				Status:  StatusError,
				Message: "redis backend selected but no address configured",
				Fix:     "Set session.redis.addr",
			}
		}
		return Check{Name: "session", Status: StatusOK, Message: "redis at " + cfg.Session.Redis.Addr}
	}
	return Check{
		Name:    "session",
		Status:  StatusError,
		Message: "unknown backend " + cfg.Session.Backend,
		Fix:     "Use memory or redis",
	}
}

// Symbol returns the display glyph for a status.
func (s Status) Symbol() string {
	switch s {
	case StatusOK:
		return "✅"
	case StatusWarning:
		return "⚠️"
	case StatusError:
		return "❌"
	case StatusDisabled:
		return "⏸"
	default:
		return "?"
	}
}
