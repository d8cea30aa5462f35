package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"
)

func levelEmoji(level string) string {
	switch level {
	case "success":
		return "✅"
	case "warning":
		return "⚠️"
	case "error":
		return "📛"
	default:
		return "🔔"
	}
}

// FormatAlertMessage renders an alert as Telegram HTML. User text is escaped.
func FormatAlertMessage(at time.Time, level, title, message string) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s <b>%s</b>\n", levelEmoji(level), html.EscapeString(title)))
	if message != "" {
		builder.WriteString(html.EscapeString(message))
		builder.WriteString("\n")
	}
	builder.WriteString(fmt.Sprintf("<i>%s</i>", at.Format("02 Jan 2006 15:04:05")))
	return builder.String()
}
