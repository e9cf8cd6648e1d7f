package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pulsepro/pulsebot/internal/config"
	"github.com/pulsepro/pulsebot/internal/digest"
	"github.com/pulsepro/pulsebot/internal/executor"
	"github.com/pulsepro/pulsebot/internal/logging"
	"github.com/pulsepro/pulsebot/internal/session"
	"github.com/pulsepro/pulsebot/internal/store"
	"github.com/pulsepro/pulsebot/internal/telegram"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the Pulsebot daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := logging.Init(cfg.Logging); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			if !cfg.Telegram.Enabled {
				return fmt.Errorf("telegram adapter is disabled; enable it in %s", config.DefaultConfigPath())
			}

			taskStore, err := store.NewSQLiteStore(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("failed to open task store: %w", err)
			}
			defer func() { _ = taskStore.Close() }()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			cache := buildCache(ctx, cfg.Session)

			client := telegram.NewClient(cfg.Telegram.BotToken)
			exec := executor.New(taskStore, cache)
			handler := telegram.NewHandler(client, chatResolver{taskStore}, exec, cfg.Telegram)
			transport := telegram.NewTransport(client, handler, cfg.Telegram.PollTimeout)

			scheduler := digest.NewScheduler(taskStore, client, cfg.Digest)
			if err := scheduler.Start(ctx); err != nil {
				return fmt.Errorf("failed to start digest scheduler: %w", err)
			}
			defer scheduler.Stop()

			transport.Start(ctx)
			logging.Default().Info("Pulsebot started")
			fmt.Println("🤖 Pulsebot is running. Press Ctrl+C to stop.")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			fmt.Println("Shutting down...")
			cancel()
			transport.Stop()
			return nil
		},
	}
}

// chatResolver adapts the store to the handler's narrow resolver interface.
type chatResolver struct {
	store *store.SQLiteStore
}

func (r chatResolver) FindUserByChatID(chatID string) (*telegram.LinkedUser, error) {
	user, err := r.store.FindUserByChatID(chatID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return &telegram.LinkedUser{ID: user.ID}, nil
}

// buildCache creates the configured result cache backend.
func buildCache(ctx context.Context, cfg *config.SessionConfig) session.Cache {
	ttl := session.DefaultTTL
	if cfg != nil && cfg.TTLMinutes > 0 {
		ttl = time.Duration(cfg.TTLMinutes) * time.Minute
	}

	if cfg != nil && cfg.Backend == config.SessionBackendRedis {
		return session.NewRedisCache(cfg.Redis, ttl)
	}

	cache := session.NewMemoryCache(ttl)
	cache.StartSweep(ctx, 5*time.Minute)
	return cache
}

// loadConfig resolves the --config flag and loads the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
