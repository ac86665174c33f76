package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/ratelimit"

	"github.com/artwin/feedback-hub/internal/feedback"
)

// Config is the process-wide Telegram binding, stored alongside the
// department collections.
type Config struct {
	BotToken string `json:"botToken"`
	ChatID   string `json:"chatId"`
}

func (c Config) Valid() bool {
	return c.BotToken != "" && c.ChatID != ""
}

// BotAPI is the slice of the Telegram bot surface the dispatcher uses.
// Tests substitute a mock.
type BotAPI interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Dispatcher delivers fire-and-forget alerts. Errors are returned so
// the caller can log them, but no alert ever blocks or fails a primary
// operation.
type Dispatcher struct {
	limiter ratelimit.Limiter
	newBot  func(token string) (BotAPI, error)
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		// Telegram tolerates ~30 msg/s per bot, stay under it
		limiter: ratelimit.New(20),
		newBot: func(token string) (BotAPI, error) {
			return telego.NewBot(token, telego.WithDefaultLogger(false, false))
		},
	}
}

const maxExcerptRunes = 500

// NewFeedbackAlert announces a freshly submitted item in the configured
// chat.
func (d *Dispatcher) NewFeedbackAlert(ctx context.Context, cfg Config, item feedback.Item) error {
	var b strings.Builder
	fmt.Fprintf(&b, "New %s — %s", item.Type, item.Department)
	if item.Urgency == feedback.UrgencyUrgent {
		b.WriteString(" (URGENT)")
	}
	fmt.Fprintf(&b, "\nFrom: %s (%s)", item.DisplayName(), item.Role)
	if item.Contact != "" {
		fmt.Fprintf(&b, "\nContact: %s", item.Contact)
	}
	fmt.Fprintf(&b, "\n\n%s", excerpt(item.Message))

	return d.send(ctx, cfg, b.String())
}

// Report delivers a generated management report.
func (d *Dispatcher) Report(ctx context.Context, cfg Config, dept feedback.Department, text string) error {
	msg := fmt.Sprintf("Report — %s\n\n%s", dept, text)
	return d.send(ctx, cfg, msg)
}

func (d *Dispatcher) send(ctx context.Context, cfg Config, text string) error {
	if !cfg.Valid() {
		return fmt.Errorf("telegram config incomplete")
	}

	bot, err := d.newBot(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	d.limiter.Take()

	_, err = bot.SendMessage(ctx, tu.Message(chatID(cfg.ChatID), text))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// chatID accepts either a numeric chat id or a @channel username.
func chatID(raw string) telego.ChatID {
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return tu.ID(id)
	}
	return tu.Username(raw)
}

func excerpt(message string) string {
	runes := []rune(message)
	if len(runes) <= maxExcerptRunes {
		return message
	}
	return string(runes[:maxExcerptRunes]) + "…"
}
