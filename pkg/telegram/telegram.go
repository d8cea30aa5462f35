package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"

	"watchlist-sync/config"
	"watchlist-sync/pkg/logger"
	"watchlist-sync/pkg/ratelimit"
)

// Sender is the part of telebot.Bot the alert sender uses.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// AlertSender forwards alerts to one Telegram chat, paced per chat.
type AlertSender struct {
	bot      Sender
	chatID   int64
	limiters *ratelimit.LimiterStore
	log      *logger.Logger
	now      func() time.Time
}

// NewBot builds an offline bot: it only sends, it never polls for updates.
func NewBot(cfg *config.TelegramConfig) (*telebot.Bot, error) {
	return telebot.NewBot(telebot.Settings{
		Token:   cfg.BotToken,
		Offline: true,
	})
}

func NewAlertSender(cfg *config.TelegramConfig, bot Sender, log *logger.Logger) *AlertSender {
	perSecond := cfg.MaxChatRequestPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	return &AlertSender{
		bot:      bot,
		chatID:   cfg.ChatID,
		limiters: ratelimit.NewLimiterStore(rate.Limit(perSecond), perSecond),
		log:      log.Component("telegram"),
		now:      time.Now,
	}
}

// SendAlert waits for the chat's rate limit and sends one HTML message.
func (s *AlertSender) SendAlert(ctx context.Context, level, title, message string) error {
	if err := s.limiters.GetLimiter(strconv.FormatInt(s.chatID, 10)).Wait(ctx); err != nil {
		s.log.WarnContext(ctx, "Failed to wait for chat rate limit", logger.ErrorField(err))
		return err
	}

	text := FormatAlertMessage(s.now(), level, title, message)
	if _, err := s.bot.Send(telebot.ChatID(s.chatID), text, telebot.ModeHTML); err != nil {
		s.log.ErrorContext(ctx, "Failed to send telegram alert", logger.ErrorField(err))
		return fmt.Errorf("failed to send telegram alert: %w", err)
	}
	return nil
}
