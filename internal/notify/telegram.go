package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier пишет в админский чат о каждом присуждении.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	return NewTelegramNotifierWithEndpoint(token, tgbotapi.APIEndpoint, chatID)
}

// NewTelegramNotifierWithEndpoint позволяет указать свой API endpoint (формат tgbotapi.APIEndpoint).
func NewTelegramNotifierWithEndpoint(token, endpoint string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// NotifyAward. tgbotapi не принимает контекст, таймаут задаёт http-клиент бота.
func (t *TelegramNotifier) NotifyAward(_ context.Context, n AwardNotice) error {
	text := fmt.Sprintf("Job awarded: %s\nType: %s\nLocation: %s, %s\nAwarded to: %s (%s)\nAmount: $%.2f",
		n.JobTitle, n.JobType, n.City, n.State, n.RecipientName, n.RecipientID, n.AwardAmount)

	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram alert: %w", err)
	}
	return nil
}
