package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"paper_trader/internal/modules/api"
	"paper_trader/internal/modules/config"
	cronrunner "paper_trader/internal/modules/cron"
	"paper_trader/internal/modules/health"
	healthsvc "paper_trader/internal/modules/health/service"
	"paper_trader/internal/modules/postgres"
	"paper_trader/internal/modules/pricefeed"
	telegram "paper_trader/internal/modules/telegram_bot"
	"paper_trader/internal/notify"
	"paper_trader/internal/runner"
	"paper_trader/internal/runner/router"
	"paper_trader/pkg/logger"
	"paper_trader/pkg/tracing"
)

func main() {
	dump := flag.Bool("dump-config", false, "print the effective config and exit")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *dump {
		out, err := cfg.Dump()
		if err != nil {
			log.Fatalf("dump config: %v", err)
		}
		_, _ = os.Stdout.Write(out)
		return
	}

	logger.SetServiceName(cfg.Service.Name)
	tracing.SetServiceName(cfg.Service.Name)

	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			func() (*zap.Logger, error) {
				return logger.New(logger.Config{
					Level:       cfg.Log.Level,
					Encoding:    cfg.Log.Encoding,
					Development: cfg.Log.Development,
				})
			},
		),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Invoke(startTracing),
		runner.Module(),
		health.Module(),
		notify.Module(),
		api.Module(),
		cronrunner.Module(),
		optional(cfg.DB.Enabled, postgres.Module()),
		optional(cfg.Telegram.Enabled, telegram.Module()),
		optional(cfg.Feed.Enabled, pricefeed.Module()),
		fx.Invoke(markReady),
	)
	app.Run()
}

func optional(enabled bool, m fx.Option) fx.Option {
	if !enabled {
		return fx.Options()
	}
	return m
}

func startTracing(lc fx.Lifecycle, cfg *config.Config) error {
	_, closer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.StopHook(closer))
	return nil
}

// markReady runs last so readiness flips only after every module started.
func markReady(lc fx.Lifecycle, state *healthsvc.State, r *router.Router, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			state.SetAccounts(len(r.Accounts()))
			state.SetReady(true)
			log.Info("paper trader ready", zap.Strings("accounts", r.Accounts()))
			return nil
		},
		OnStop: func(context.Context) error {
			state.SetReady(false)
			return nil
		},
	})
}
