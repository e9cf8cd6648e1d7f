package telegram

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/pulsepro/pulsebot/internal/logging"
)

// Transport runs the long-polling loop and feeds messages to the Handler.
type Transport struct {
	client      *Client
	handler     *Handler
	pollTimeout int   // long-poll timeout in seconds
	offset      int64 // last acknowledged update ID
	mu          sync.Mutex
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewTransport creates a Telegram transport.
func NewTransport(client *Client, handler *Handler, pollTimeout int) *Transport {
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	return &Transport{
		client:      client,
		handler:     handler,
		pollTimeout: pollTimeout,
		stopCh:      make(chan struct{}),
	}
}

// Start begins polling in background goroutines.
func (t *Transport) Start(ctx context.Context) {
	t.wg.Add(1)
	go t.pollLoop(ctx)

	t.wg.Add(1)
	go t.housekeepingLoop(ctx)
}

// Stop gracefully stops the polling loop.
func (t *Transport) Stop() {
	close(t.stopCh)
	t.wg.Wait()
}

// pollLoop continuously fetches and processes updates.
func (t *Transport) pollLoop(ctx context.Context) {
	defer t.wg.Done()

	logging.WithComponent("telegram").Debug("Transport poll loop started")

	for {
		select {
		case <-ctx.Done():
			logging.WithComponent("telegram").Debug("Transport poll loop stopped")
			return
		case <-t.stopCh:
			logging.WithComponent("telegram").Debug("Transport poll loop stopped")
			return
		default:
			t.fetchAndProcess(ctx)
		}
	}
}

// housekeepingLoop drops idle rate-limit buckets periodically.
func (t *Transport) housekeepingLoop(ctx context.Context) {
	defer t.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.handler.CleanupLimiter(time.Hour)
		}
	}
}

// fetchAndProcess fetches one batch of updates and dispatches them.
func (t *Transport) fetchAndProcess(ctx context.Context) {
	updates, err := t.client.GetUpdates(ctx, t.currentOffset(), t.pollTimeout)
	if err != nil {
		if ctx.Err() == nil {
			logging.WithComponent("telegram").Warn("Error fetching updates", slog.Any("error", err))
		}
		time.Sleep(time.Second)
		return
	}

	for _, update := range updates {
		if update.Message != nil && update.Message.Chat != nil && update.Message.Text != "" {
			t.handler.OnMessage(ctx, formatChatID(update.Message.Chat.ID), update.Message.Text)
		}
		t.acknowledge(update.UpdateID)
	}
}

// formatChatID renders a numeric Telegram chat id as the string key used
// throughout the core.
func formatChatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// currentOffset returns the next getUpdates offset.
func (t *Transport) currentOffset() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offset
}

// acknowledge advances the offset past a processed update.
func (t *Transport) acknowledge(updateID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if updateID >= t.offset {
		t.offset = updateID + 1
	}
}
