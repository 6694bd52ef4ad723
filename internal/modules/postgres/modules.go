package postgres

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"paper_trader/internal/modules/config"
	"paper_trader/internal/modules/postgres/service"
	"paper_trader/internal/runner/events"
	"paper_trader/pkg/db"
)

// Module connects to postgres and records opened/closed trades from the event bus.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB.DSN,
				})
				if err != nil {
					return nil, errors.Wrap(err, "failed to create poolMaster")
				}

				if err = poolMaster.Ping(ctx); err != nil {
					return nil, errors.Wrap(err, "ping postgres")
				}

				return db.NewPgTxManager(poolMaster), nil
			},
			func(m *db.PgTxManager) *service.Recorder {
				return service.NewRecorder(m)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, m *db.PgTxManager, rec *service.Recorder, bus *events.Bus, log *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					if err := rec.EnsureSchema(ctx); err != nil {
						return err
					}
					bus.Subscribe("postgres", rec.RecordTrade)
					log.Info("trade recorder attached")
					return nil
				},
				OnStop: func(context.Context) error {
					m.Close()
					return nil
				},
			})
		}),
	)
}
