// Command server serves stock limit reports as JSON.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"stockreporter/internal/config"
	"stockreporter/internal/httpx"
	"stockreporter/internal/limits"
	"stockreporter/internal/logger"
	"stockreporter/internal/provider"
	"stockreporter/internal/provider/ratelimit"
	"stockreporter/internal/provider/yql"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if err := logger.Init(logger.Config{
		Level:         cfg.Logging.Level,
		Format:        cfg.Logging.Format,
		FileEnabled:   cfg.Logging.FileEnabled,
		FilePath:      cfg.Logging.FilePath,
		RotationSize:  cfg.Logging.RotationSize,
		RetentionDays: cfg.Logging.RetentionDays,
		ServiceName:   "stockreport-server",
	}); err != nil {
		log.Fatal().Err(err).Msg("logger")
	}

	limitsPath, err := limits.Resolve(cfg.Limits.File)
	if err != nil {
		log.Fatal().Err(err).Msg("limits path")
	}

	httpClient := httpx.New(time.Duration(cfg.Quotes.TimeoutSec) * time.Second)
	httpClient.UserAgent = cfg.Quotes.UserAgent

	var p provider.Provider = yql.New(
		yql.WithHTTPClient(httpClient),
		yql.WithEndpoint(cfg.Quotes.Endpoint),
		yql.WithQuery(cfg.Quotes.Query),
		yql.WithFields(cfg.Quotes.Fields),
	)
	if cfg.Server.UpstreamMaxRPM > 0 {
		p = &ratelimit.Provider{P: p, TB: ratelimit.PerMinute(cfg.Server.UpstreamMaxRPM, cfg.Server.UpstreamBurst)}
	}
	if cfg.Server.UpstreamMinInterval > 0 {
		p = &ratelimit.MinInterval{P: p, Interval: time.Duration(cfg.Server.UpstreamMinInterval) * time.Second}
	}

	s := &reportServer{
		provider:   p,
		limitsPath: limitsPath,
		timeout:    time.Duration(cfg.Server.RequestTimeoutSec) * time.Second,
		sem:        semaphore.NewWeighted(int64(max(cfg.Server.MaxConcurrentReports, 1))),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.timeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("limits", limitsPath).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
		os.Exit(1)
	}
}
