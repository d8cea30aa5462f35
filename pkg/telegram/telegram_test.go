package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"watchlist-sync/config"
	"watchlist-sync/pkg/logger"
)

func TestFormatAlertMessage(t *testing.T) {
	at := time.Date(2026, 10, 14, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		level   string
		title   string
		message string
		want    string
	}{
		{
			name:    "error with message",
			level:   "error",
			title:   "Failed to add AAPL",
			message: "Unknown symbol",
			want:    "📛 <b>Failed to add AAPL</b>\nUnknown symbol\n<i>14 Oct 2026 10:30:00</i>",
		},
		{
			name:  "escapes html",
			level: "warning",
			title: "<script>",
			want:  "⚠️ <b>&lt;script&gt;</b>\n<i>14 Oct 2026 10:30:00</i>",
		},
		{
			name:  "unknown level",
			level: "info",
			title: "Calculating prices",
			want:  "🔔 <b>Calculating prices</b>\n<i>14 Oct 2026 10:30:00</i>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAlertMessage(at, tt.level, tt.title, tt.message))
		})
	}
}

type stubSender struct {
	to   telebot.Recipient
	what interface{}
	opts []interface{}
	err  error
}

func (s *stubSender) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	s.to, s.what, s.opts = to, what, opts
	return &telebot.Message{}, s.err
}

func TestAlertSender_SendAlert(t *testing.T) {
	bot := &stubSender{}
	sender := NewAlertSender(&config.TelegramConfig{ChatID: 42}, bot, logger.Nop())
	sender.now = func() time.Time { return time.Date(2026, 10, 14, 10, 30, 0, 0, time.UTC) }

	require.NoError(t, sender.SendAlert(context.Background(), "success", "Prices updated", "done"))

	assert.Equal(t, "42", bot.to.Recipient())
	assert.Equal(t, "✅ <b>Prices updated</b>\ndone\n<i>14 Oct 2026 10:30:00</i>", bot.what)
	assert.Contains(t, bot.opts, telebot.ModeHTML)
}

func TestAlertSender_SendFailure(t *testing.T) {
	bot := &stubSender{err: errors.New("chat not found")}
	sender := NewAlertSender(&config.TelegramConfig{ChatID: 42}, bot, logger.Nop())

	err := sender.SendAlert(context.Background(), "error", "x", "y")

	assert.ErrorContains(t, err, "chat not found")
}
