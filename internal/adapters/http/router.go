package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Together/internal/adapters/auth"
	"github.com/dkeye/Together/internal/adapters/signal"
	"github.com/dkeye/Together/internal/app/orch"
	"github.com/dkeye/Together/internal/config"
	"github.com/dkeye/Together/internal/metrics"
)

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, m *metrics.Metrics) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(m.Handler(func() {
		m.SetActiveRooms(len(o.Rooms.ListByActivity()))
	})))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	gate := auth.NewGate(cfg.Secret)
	ctrl := signal.NewSignalWSController(o, cfg.ReadLimit, cfg.PingPeriod)

	api := r.Group("/api")
	api.GET("/ws", gate.Middleware(), func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
