package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// AlertSender delivers an ops alert out of band (Telegram admin chat).
type AlertSender interface {
	SendMessage(text string)
}

// SetupTelegramHandler layers an alert handler over the base logger:
// records at or above minLevel are also forwarded to the sender.
func SetupTelegramHandler(base *slog.Logger, sender AlertSender, minLevel slog.Level) *slog.Logger {
	return slog.New(&telegramHandler{
		next:     base.Handler(),
		sender:   sender,
		minLevel: minLevel,
	})
}

type telegramHandler struct {
	next     slog.Handler
	sender   AlertSender
	minLevel slog.Level
	attrs    []slog.Attr
}

func (h *telegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *telegramHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= h.minLevel && h.sender != nil {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("[%s] %s", record.Level, record.Message))
		for _, attr := range h.attrs {
			sb.WriteString(fmt.Sprintf("\n%s: %s", attr.Key, attr.Value))
		}
		record.Attrs(func(attr slog.Attr) bool {
			sb.WriteString(fmt.Sprintf("\n%s: %s", attr.Key, attr.Value))
			return true
		})
		// Fire and forget: alerting must never block request handling.
		go h.sender.SendMessage(sb.String())
	}
	return h.next.Handle(ctx, record)
}

func (h *telegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &telegramHandler{
		next:     h.next.WithAttrs(attrs),
		sender:   h.sender,
		minLevel: h.minLevel,
		attrs:    append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *telegramHandler) WithGroup(name string) slog.Handler {
	return &telegramHandler{
		next:     h.next.WithGroup(name),
		sender:   h.sender,
		minLevel: h.minLevel,
		attrs:    h.attrs,
	}
}
