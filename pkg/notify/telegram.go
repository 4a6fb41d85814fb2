package notify

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/jdziat/durable-reminders/pkg/core"
)

// TelegramSender is the subset of *tgbotapi.BotAPI the Telegram sink uses.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramOption configures the Telegram sink.
type TelegramOption interface {
	applyTelegram(*telegramNotifier)
}

type telegramOptionFunc func(*telegramNotifier)

func (f telegramOptionFunc) applyTelegram(t *telegramNotifier) { f(t) }

// RatePerSec caps outgoing messages per second. Telegram rejects bursts
// above roughly 30 messages per second per bot.
func RatePerSec(rps int) TelegramOption {
	return telegramOptionFunc(func(t *telegramNotifier) {
		if rps <= 0 {
			t.limiter = nil
			return
		}
		t.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	})
}

// InLocation renders due times in loc instead of UTC.
func InLocation(loc *time.Location) TelegramOption {
	return telegramOptionFunc(func(t *telegramNotifier) {
		t.loc = loc
	})
}

// DisableNotification sends messages silently.
func DisableNotification() TelegramOption {
	return telegramOptionFunc(func(t *telegramNotifier) {
		t.silent = true
	})
}

type telegramNotifier struct {
	sender  TelegramSender
	chatID  int64
	limiter *rate.Limiter
	loc     *time.Location
	silent  bool
}

// Telegram returns a sink that sends each reminder as a chat message.
// Pass a *tgbotapi.BotAPI created with tgbotapi.NewBotAPI as sender.
func Telegram(sender TelegramSender, chatID int64, opts ...TelegramOption) core.Notifier {
	t := &telegramNotifier{
		sender:  sender,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(20), 20),
	}
	for _, opt := range opts {
		opt.applyTelegram(t)
	}
	return t
}

func (t *telegramNotifier) Notify(ctx context.Context, n core.Notification) error {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("telegram: rate limit wait: %w", err)
		}
	}

	msg := tgbotapi.NewMessage(t.chatID, "⏰ "+Format(n, t.loc))
	msg.DisableNotification = t.silent
	if _, err := t.sender.Send(msg); err != nil {
		return fmt.Errorf("telegram: send to chat %d: %w", t.chatID, err)
	}
	return nil
}
