package notify

import (
	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"paper_trader/internal/modules/config"
	"paper_trader/internal/runner/events"
)

type Params struct {
	fx.In

	Cfg *config.Config
	Log *zap.Logger
	Bot *tgbot.BotAPI `optional:"true"`
}

// New picks telegram when a bot is available, the log otherwise.
func New(p Params) Notifier {
	var n Notifier
	if p.Bot != nil && p.Cfg.Telegram.ChatID != 0 {
		n = NewTelegram(p.Bot, p.Cfg.Telegram.ChatID)
	} else {
		n = NewLog(p.Log)
	}
	return Filter(n, p.Cfg.Telegram.Kinds)
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(New),
		fx.Invoke(func(bus *events.Bus, n Notifier) {
			bus.Subscribe("notify", n.Notify)
		}),
	)
}
