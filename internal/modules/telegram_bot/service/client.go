package service

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper_trader/internal/models"
)

// Accounts is the engine surface the bot reads and controls.
type Accounts interface {
	Accounts() []string
	Snapshot(accountID string) (models.Account, error)
	OpenPositions(accountID string) ([]models.Position, error)
	SetStrategy(accountID string, st models.Strategy) error
	ClosePosition(ctx context.Context, accountID, positionID string, exitPrice decimal.Decimal) (models.ClosedTrade, error)
}

type BotAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

// Telegram answers account commands in the configured chat.
type Telegram struct {
	bot      BotAPI
	accounts Accounts
	chatID   int64 // the only chat answered; 0 answers none
	log      *zap.Logger
}

func NewTelegram(bot BotAPI, accounts Accounts, chatID int64, log *zap.Logger) *Telegram {
	return &Telegram{
		bot:      bot,
		accounts: accounts,
		chatID:   chatID,
		log:      log.Named("telegram"),
	}
}

func (t *Telegram) Send(chatID int64, msg string) (tgbot.Message, error) {
	return t.bot.Send(tgbot.NewMessage(chatID, msg))
}

func (t *Telegram) SendF(chatID int64, format string, args ...any) (tgbot.Message, error) {
	return t.Send(chatID, fmt.Sprintf(format, args...))
}

// Start consumes updates until ctx is done or the channel closes.
func (t *Telegram) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, update)
			}
		}
	}()
}

func (t *Telegram) Stop() {
	t.bot.StopReceivingUpdates()
}
