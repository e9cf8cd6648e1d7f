// Package digest pushes a scheduled morning summary of due-today tasks to
// every linked chat.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pulsepro/pulsebot/internal/executor"
	"github.com/pulsepro/pulsebot/internal/logging"
	"github.com/pulsepro/pulsebot/internal/store"
	"github.com/pulsepro/pulsebot/internal/telegram"
)

// Config holds digest scheduling settings.
type Config struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron expression, e.g. "0 8 * * *"
	Timezone string `yaml:"timezone"`
}

// DefaultConfig returns digest defaults: disabled, 8am server-local.
func DefaultConfig() *Config {
	return &Config{
		Enabled:  false,
		Schedule: "0 8 * * *",
		Timezone: "Local",
	}
}

// UserSource lists the accounts that receive a digest.
type UserSource interface {
	ListLinkedUsers() ([]*store.User, error)
	FindDueToday(userID string, limit int) ([]store.TaskItem, error)
}

// Scheduler runs the digest job on a cron schedule.
type Scheduler struct {
	users   UserSource
	sender  telegram.Sender
	config  *Config
	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	entryID cron.EntryID
	logger  *slog.Logger
}

// NewScheduler creates a digest scheduler.
func NewScheduler(users UserSource, sender telegram.Sender, config *Config) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}

	logger := logging.WithComponent("digest")

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		logger.Warn("Invalid timezone, using UTC", slog.String("timezone", config.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	return &Scheduler{
		users:  users,
		sender: sender,
		config: config,
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
	}
}

// Start begins the scheduler. A disabled config is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if !s.config.Enabled {
		s.logger.Info("Digest scheduler disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", s.config.Schedule, err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.running = true
	s.logger.Info("Digest scheduler started", slog.String("schedule", s.config.Schedule))
	return nil
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cron.Remove(s.entryID)
	s.cron.Stop()
	s.running = false
}

// RunOnce sends the digest to every linked user immediately. Per-user
// failures are logged and skipped so one broken chat never blocks the rest.
// The digest deliberately never touches the result cache: it is not a
// conversation-initiated listing, so "done N" keeps referring to whatever
// the user last listed themselves.
func (s *Scheduler) RunOnce(ctx context.Context) {
	users, err := s.users.ListLinkedUsers()
	if err != nil {
		s.logger.Error("Failed to list digest recipients", slog.Any("error", err))
		return
	}

	for _, user := range users {
		text, err := s.buildDigest(user.ID)
		if err != nil {
			s.logger.Warn("Failed to build digest", slog.String("user_id", user.ID), slog.Any("error", err))
			continue
		}
		if _, err := s.sender.SendMessage(ctx, user.TelegramChatID, text, ""); err != nil {
			s.logger.Warn("Failed to deliver digest", slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}
}

// buildDigest renders one user's due-today summary.
func (s *Scheduler) buildDigest(userID string) (string, error) {
	items, err := s.users.FindDueToday(userID, 10)
	if err != nil {
		return "", fmt.Errorf("failed to fetch due-today tasks: %w", err)
	}

	if len(items) == 0 {
		return "☀️ Good morning! Nothing due today.", nil
	}
	return "☀️ Good morning! Due today:\n\n" + executor.FormatTaskLines(items) +
		"\nSend today to see this list again.", nil
}
