package notify

import (
	"context"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"paper_trader/internal/models"
)

// Sender is the part of *tgbot.BotAPI used for notifications.
type Sender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// Telegram sends every event to one chat.
type Telegram struct {
	bot    Sender
	chatID int64
}

func NewTelegram(bot Sender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

func (t *Telegram) Notify(_ context.Context, ev models.TradeEvent) error {
	if t.chatID == 0 {
		return nil
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, Format(ev))); err != nil {
		return errors.Wrap(err, "telegram send")
	}
	return nil
}
