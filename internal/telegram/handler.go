package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/pulsepro/pulsebot/internal/command"
	"github.com/pulsepro/pulsebot/internal/logging"
)

const (
	msgNotLinked     = "This chat isn't linked to a Pulse Pro account yet. Run `pulsebot link` on your workspace to connect it."
	msgInternalError = "Something went wrong. Please try again in a moment."
)

// Sender sends a reply to a chat. *Client satisfies it; tests substitute a
// recording fake.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text, parseMode string) (*SendMessageResponse, error)
}

// UserResolver maps a Telegram chat to the account that owns it.
type UserResolver interface {
	// FindUserByChatID returns (nil, nil) when the chat is not linked.
	FindUserByChatID(chatID string) (*LinkedUser, error)
}

// LinkedUser is the account identity the handler needs: just the user id.
type LinkedUser struct {
	ID string
}

// CommandRunner executes a parsed command for a user. The executor package
// provides the real implementation.
type CommandRunner interface {
	Execute(ctx context.Context, cmd command.Command, userID, conversationID string) (string, error)
}

// Config holds Telegram adapter settings.
type Config struct {
	Enabled       bool             `yaml:"enabled"`
	BotToken      string           `yaml:"bot_token"`
	PollTimeout   int              `yaml:"poll_timeout"`    // long-poll timeout in seconds
	PlainTextMode bool             `yaml:"plain_text_mode"` // disable Markdown rendering
	RateLimit     *RateLimitConfig `yaml:"rate_limit"`
}

// DefaultConfig returns default Telegram adapter settings.
func DefaultConfig() *Config {
	return &Config{
		Enabled:       false,
		PollTimeout:   30,
		PlainTextMode: false,
		RateLimit:     DefaultRateLimitConfig(),
	}
}

// Handler is the message entry point: it resolves the chat to an account,
// parses the text, runs the command, and sends the reply.
type Handler struct {
	sender    Sender
	users     UserResolver
	runner    CommandRunner
	limiter   *RateLimiter
	plainText bool
	logger    *slog.Logger
}

// NewHandler creates a message handler.
func NewHandler(sender Sender, users UserResolver, runner CommandRunner, cfg *Config) *Handler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Handler{
		sender:    sender,
		users:     users,
		runner:    runner,
		limiter:   NewRateLimiter(cfg.RateLimit),
		plainText: cfg.PlainTextMode,
		logger:    logging.WithComponent("telegram"),
	}
}

// parseMode returns the Telegram parse mode for outbound replies.
func (h *Handler) parseMode() string {
	if h.plainText {
		return ""
	}
	return "Markdown"
}

// OnMessage handles one inbound message for a conversation. Replies are
// best-effort: send failures are logged, never surfaced to the core.
func (h *Handler) OnMessage(ctx context.Context, chatID, text string) {
	if !h.limiter.Allow(chatID) {
		h.logger.Warn("Rate limited", slog.String("chat_id", chatID))
		return
	}

	user, err := h.users.FindUserByChatID(chatID)
	if err != nil {
		h.logger.Error("Failed to resolve chat", slog.String("chat_id", chatID), slog.Any("error", err))
		h.reply(ctx, chatID, msgInternalError)
		return
	}
	if user == nil {
		h.reply(ctx, chatID, msgNotLinked)
		return
	}

	cmd := command.Parse(text)
	replyText, err := h.runner.Execute(ctx, cmd, user.ID, chatID)
	if err != nil {
		// Infrastructure failure: the executor never synthesizes a reply
		// for these, so the fallback happens here.
		h.logger.Error("Command execution failed",
			slog.String("chat_id", chatID),
			slog.String("command", cmd.Kind.String()),
			slog.Any("error", err))
		h.reply(ctx, chatID, msgInternalError)
		return
	}

	h.reply(ctx, chatID, replyText)
}

// reply sends a message, logging failures.
func (h *Handler) reply(ctx context.Context, chatID, text string) {
	if _, err := h.sender.SendMessage(ctx, chatID, text, h.parseMode()); err != nil {
		h.logger.Warn("Failed to send reply", slog.String("chat_id", chatID), slog.Any("error", err))
	}
}

// CleanupLimiter drops idle rate-limit buckets.
func (h *Handler) CleanupLimiter(maxAge time.Duration) {
	h.limiter.Cleanup(maxAge)
}
