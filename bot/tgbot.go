// Package bot holds the Telegram alert bot used for ops notifications.
package bot

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"CrewChat/internal/lib/sl"
)

// TgBot delivers alert messages to the admin chat. Send-only; the service
// never processes inbound Telegram updates.
type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	botUsername string
	adminId     int64
}

func NewTgBot(botName, apiKey string, adminId int64, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		adminId:     adminId,
		botUsername: botName,
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

// SendMessage forwards an alert to the admin chat. Implements the logger's
// AlertSender.
func (t *TgBot) SendMessage(msg string) {
	t.plainResponse(t.adminId, msg)
}

func (t *TgBot) plainResponse(chatId int64, text string) {
	if chatId == 0 {
		return
	}
	_, err := t.api.SendMessage(chatId, text, nil)
	if err != nil {
		t.log.Warn("failed to send telegram alert", sl.Err(err))
	}
}
