package service

import (
	"context"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper_trader/internal/models"
)

const helpText = "Commands:\n" +
	"/accounts - list accounts\n" +
	"/status <account> - balance and stats\n" +
	"/positions <account> - open positions\n" +
	"/strategy <account> <conservative|aggressive> - switch strategy\n" +
	"/close <account> <position> <price> - close a position"

func (t *Telegram) handleUpdate(ctx context.Context, update tgbot.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}
	chatID := msg.Chat.ID
	if t.chatID == 0 || chatID != t.chatID {
		return
	}

	reply := t.handleCommand(ctx, msg.Command(), strings.Fields(msg.CommandArguments()))
	if _, err := t.Send(chatID, reply); err != nil {
		t.log.Warn("reply failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (t *Telegram) handleCommand(ctx context.Context, cmd string, args []string) string {
	switch cmd {
	case "start", "help":
		return helpText
	case "accounts":
		ids := t.accounts.Accounts()
		if len(ids) == 0 {
			return "No accounts enabled"
		}
		return "Accounts:\n" + strings.Join(ids, "\n")
	case "status":
		if len(args) != 1 {
			return "Usage: /status <account>"
		}
		acc, err := t.accounts.Snapshot(args[0])
		if err != nil {
			return "❗️ " + err.Error()
		}
		return formatAccount(acc)
	case "positions":
		if len(args) != 1 {
			return "Usage: /positions <account>"
		}
		ps, err := t.accounts.OpenPositions(args[0])
		if err != nil {
			return "❗️ " + err.Error()
		}
		return formatPositions(args[0], ps)
	case "strategy":
		if len(args) != 2 {
			return "Usage: /strategy <account> <conservative|aggressive>"
		}
		st := models.Strategy(strings.ToLower(args[1]))
		if err := t.accounts.SetStrategy(args[0], st); err != nil {
			return "❗️ " + err.Error()
		}
		return "Strategy for " + args[0] + " set to " + string(st)
	case "close":
		if len(args) != 3 {
			return "Usage: /close <account> <position> <price>"
		}
		price, err := decimal.NewFromString(args[2])
		if err != nil || !price.IsPositive() {
			return "❗️ invalid price " + args[2]
		}
		trade, err := t.accounts.ClosePosition(ctx, args[0], args[1], price)
		if err != nil {
			return "❗️ " + err.Error()
		}
		return formatClosed(trade)
	default:
		return "Unknown command.\n" + helpText
	}
}
