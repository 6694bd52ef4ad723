package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"paper_trader/internal/modules/api/service"
	"paper_trader/internal/modules/config"
	"paper_trader/internal/runner/events"
	"paper_trader/internal/runner/router"
)

func NewEngine(cfg *config.Config, h *service.Handler, log *zap.Logger) *gin.Engine {
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLog(log))
	h.Register(r)
	return r
}

func requestLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, hub *service.Hub, log *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.Service.Host, cfg.Service.PublicPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			log.Info("api listener started", zap.String("addr", addr))
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			hub.Close()
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("api",
		fx.Provide(
			service.NewHub,
			func(r *router.Router, hub *service.Hub) *service.Handler {
				return &service.Handler{Engine: r, Hub: hub}
			},
			NewEngine,
		),
		fx.Invoke(func(bus *events.Bus, hub *service.Hub) {
			bus.Subscribe("ws", hub.Publish)
		}),
		fx.Invoke(RunHTTP),
	)
}
