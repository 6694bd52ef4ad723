package telegram

import (
	"context"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"paper_trader/internal/modules/config"
	"paper_trader/internal/modules/telegram_bot/service"
	"paper_trader/internal/runner/router"
)

// Module connects the bot. The *tgbot.BotAPI it provides also switches notifications to telegram.
func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			func(cfg *config.Config) (*tgbot.BotAPI, error) {
				b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
				if err != nil {
					return nil, errors.Wrap(err, "telegram login")
				}
				return b, nil
			},
			func(b *tgbot.BotAPI, r *router.Router, cfg *config.Config, log *zap.Logger) *service.Telegram {
				return service.NewTelegram(b, r, cfg.Telegram.ChatID, log)
			},
		),
		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram) {
				ctx, cancel := context.WithCancel(context.Background())
				lc.Append(fx.Hook{
					OnStart: func(context.Context) error {
						t.Start(ctx)
						return nil
					},
					OnStop: func(context.Context) error {
						cancel()
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
