package notify

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flight_monitor/internal/model"
)

// MessageSender is the subset of the Telegram bot API used for alerts.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends alerts to a fixed set of chats.
type Telegram struct {
	api     MessageSender
	chatIDs []int64
}

// NewTelegram creates a Telegram notifier.
func NewTelegram(api MessageSender, chatIDs []int64) *Telegram {
	return &Telegram{api: api, chatIDs: chatIDs}
}

// Notify sends the alert to every chat.
func (t *Telegram) Notify(_ context.Context, deal model.Deal) error {
	text := Message(deal)
	var errs []error
	for _, id := range t.chatIDs {
		msg := tgbotapi.NewMessage(id, text)
		msg.DisableWebPagePreview = true
		if _, err := t.api.Send(msg); err != nil {
			errs = append(errs, fmt.Errorf("send to chat %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
