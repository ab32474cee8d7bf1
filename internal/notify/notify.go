// Package notify delivers seat alerts to a single Telegram chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// ErrNotConfigured means no bot token was supplied.
var ErrNotConfigured = errors.New("telegram bot token not configured")

// ConfigError is returned before any network call when the notifier cannot
// send at all.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "notify config: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// NotifyError wraps a failed delivery attempt.
type NotifyError struct {
	Text string
	Err  error
}

func (e *NotifyError) Error() string { return "send telegram message: " + e.Err.Error() }
func (e *NotifyError) Unwrap() error { return e.Err }

// AlertEvent is one message bound for the recipient.
type AlertEvent struct {
	Recipient string
	Text      string
}

type Config struct {
	Token   string
	ChatID  string
	APIURL  string
	Timeout time.Duration
}

type Telegram struct {
	bot    *tele.Bot
	chatID string
	logger *slog.Logger
}

// chat implements tele.Recipient for numeric ids and @channel names alike.
type chat string

func (c chat) Recipient() string { return string(c) }

// New builds the notifier without contacting Telegram. A missing token is not
// an error here; Send reports it.
func New(cfg Config, logger *slog.Logger) (*Telegram, error) {
	t := &Telegram{chatID: cfg.ChatID, logger: logger}
	if strings.TrimSpace(cfg.Token) == "" {
		return t, nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimRight(cfg.APIURL, "/"),
		Token:   cfg.Token,
		Client:  &http.Client{Timeout: timeout},
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	t.bot = b
	return t, nil
}

func (t *Telegram) Configured() bool {
	return t.bot != nil
}

// Send posts text to the configured chat. Exactly one request is made; there
// are no retries.
func (t *Telegram) Send(ctx context.Context, text string) error {
	if t.bot == nil {
		return &ConfigError{Err: ErrNotConfigured}
	}
	if strings.TrimSpace(text) == "" {
		return &NotifyError{Text: text, Err: errors.New("empty message")}
	}
	if err := ctx.Err(); err != nil {
		return &NotifyError{Text: text, Err: err}
	}

	ev := AlertEvent{Recipient: t.chatID, Text: text}
	if _, err := t.bot.Send(chat(ev.Recipient), ev.Text); err != nil {
		return &NotifyError{Text: text, Err: err}
	}
	t.logger.Info("telegram notification sent", "chat_id", ev.Recipient, "text", ev.Text)
	return nil
}
