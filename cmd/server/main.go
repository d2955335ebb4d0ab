package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Together/internal/adapters/catalog"
	router "github.com/dkeye/Together/internal/adapters/http"
	"github.com/dkeye/Together/internal/app"
	"github.com/dkeye/Together/internal/app/orch"
	"github.com/dkeye/Together/internal/config"
	"github.com/dkeye/Together/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Secret == "" {
		log.Fatal().Msg("secret must be set; connections cannot be verified without it")
	}

	registry := app.NewRegistry()
	rooms := app.NewRoomManager()
	resolver := catalog.NewYouTube(cfg.YoutubeAPIKey, cfg.YoutubeAPIBase)
	limiter := app.NewChatLimiter(1, cfg.ChatCooldown)
	m := metrics.New()

	coordinator := orch.New(registry, rooms, resolver, limiter, m, cfg.ChatMaxLen, cfg.QueuePendingLimit)

	r := router.SetupRouter(ctx, cfg, coordinator, m)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Together server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
