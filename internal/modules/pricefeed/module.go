package pricefeed

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"paper_trader/internal/modules/config"
	healthsvc "paper_trader/internal/modules/health/service"
	"paper_trader/internal/modules/pricefeed/service"
	"paper_trader/internal/runner/router"
)

// Module streams marks into the router so stop-loss and take-profit levels are watched.
func Module() fx.Option {
	return fx.Module("pricefeed",
		fx.Provide(
			func(cfg *config.Config, r *router.Router, state *healthsvc.State, m *healthsvc.Metrics, log *zap.Logger) *service.Client {
				return service.NewClient(service.Config{
					URL:            cfg.Feed.URL,
					Symbols:        cfg.Feed.Symbols,
					ReconnectDelay: cfg.Feed.ReconnectDelay,
					StripQuote:     cfg.Feed.StripQuote,
				}, r, state, m.Tick, log)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Client) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go c.Start(ctx)
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
