package cronrunner

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"paper_trader/internal/modules/config"
	"paper_trader/internal/runner/router"
)

// DailyResetter opens a new daily PnL window.
type DailyResetter interface {
	ResetDaily(at time.Time)
}

// DailyReset returns the job that rolls every account's daily PnL.
func DailyReset(r DailyResetter, log *zap.Logger, now func() time.Time) func(context.Context) {
	return func(context.Context) {
		at := now().UTC()
		r.ResetDaily(at)
		log.Info("daily pnl reset", zap.Time("at", at))
	}
}

func Module() fx.Option {
	return fx.Module("cron",
		fx.Provide(func(ctx context.Context, log *zap.Logger) *Runner {
			return New(log.Named("cron"), ctx)
		}),
		fx.Invoke(func(lc fx.Lifecycle, cr *Runner, cfg *config.Config, r *router.Router, log *zap.Logger) error {
			if _, err := cr.Add(cfg.Trading.DailyResetSpec, DailyReset(r, log, time.Now)); err != nil {
				return errors.Wrapf(err, "schedule daily reset %q", cfg.Trading.DailyResetSpec)
			}
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					cr.Start()
					return nil
				},
				OnStop: func(context.Context) error {
					cr.Stop()
					return nil
				},
			})
			return nil
		}),
	)
}
