package runner

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"paper_trader/internal/models"
	"paper_trader/internal/modules/config"
	"paper_trader/internal/runner/dedupe"
	"paper_trader/internal/runner/events"
	"paper_trader/internal/runner/router"
	"paper_trader/internal/runner/sessions"
)

// Module wires the event bus, the dedupe store and the account router.
func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			func(cfg *config.Config, log *zap.Logger) *events.Bus {
				return events.NewBus(cfg.Trading.EventBuffer, log.Named("events"))
			},
			NewDedupeStore,
			func(ctx context.Context, cfg *config.Config, bus *events.Bus, seen dedupe.Store, log *zap.Logger) *router.Router {
				return router.NewRouter(ctx, DefaultSettings(cfg), bus, seen, log)
			},
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			ctx context.Context,
			cfg *config.Config,
			bus *events.Bus,
			r *router.Router,
			log *zap.Logger,
		) {
			busCtx, cancel := context.WithCancel(ctx)
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go bus.Run(busCtx)
					for _, a := range cfg.Accounts {
						if _, err := r.EnableAccount(AccountSettings(a)); err != nil {
							return err
						}
						log.Info("account enabled", zap.String("account", a.ID))
					}
					return nil
				},
				OnStop: func(context.Context) error {
					r.StopAll()
					cancel()
					return nil
				},
			})
		}),
	)
}

// DefaultSettings converts the trading section into session defaults.
func DefaultSettings(cfg *config.Config) sessions.Settings {
	return sessions.Settings{
		Strategy:       models.Strategy(cfg.Trading.Strategy),
		InitialBalance: decimal.NewFromFloat(cfg.Trading.InitialBalance),
		RiskPct:        decimal.NewFromFloat(cfg.Trading.RiskPct),
		QueueSize:      cfg.Trading.QueueSize,
	}
}

// AccountSettings leaves zero fields for the router to fill from defaults.
func AccountSettings(a config.AccountConfig) sessions.Settings {
	st := sessions.Settings{
		AccountID: a.ID,
		Strategy:  models.Strategy(a.Strategy),
	}
	if a.InitialBalance > 0 {
		st.InitialBalance = decimal.NewFromFloat(a.InitialBalance)
	}
	if a.RiskPct > 0 {
		st.RiskPct = decimal.NewFromFloat(a.RiskPct)
	}
	return st
}

// NewDedupeStore returns the configured idempotency store.
func NewDedupeStore(lc fx.Lifecycle, cfg *config.Config) (dedupe.Store, error) {
	switch cfg.Dedupe.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Dedupe.RedisAddr,
			Password: cfg.Dedupe.RedisPassword,
			DB:       cfg.Dedupe.RedisDB,
		})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return errors.Wrap(client.Ping(ctx).Err(), "ping redis")
			},
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
		return dedupe.NewRedis(client, cfg.Dedupe.KeyPrefix, cfg.Dedupe.TTL), nil
	default:
		return dedupe.NewMemory(cfg.Dedupe.TTL), nil
	}
}
