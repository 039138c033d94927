package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nominapro/internal/config"
	"nominapro/internal/infra"
	"nominapro/internal/repository"
	"nominapro/internal/router"
	"nominapro/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Circuit breaker in front of the calculation service — shared between
	// the request path, the retry cron and the health endpoint.
	calculoCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())

	// Start goroutine worker pool for async tasks (value upgrades, email).
	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calculoClient := infra.NewCalculoClient(cfg.CalculoServiceURL, time.Duration(cfg.CalculoTimeoutSec)*time.Second)
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb, cfg.NotificacionesEmail)
	novedadRepo := repository.NewNovedadRepository(db)
	empleadoRepo := repository.NewEmpleadoRepository(db)

	workerHandlers := worker.WorkerHandlers{
		Email:     worker.NewEmailWorker(mailer),
		Recalculo: worker.NewRecalculoWorker(novedadRepo, empleadoRepo, calculoClient, calculoCB, rdb),
	}
	worker.StartWorkerPool(ctx, rdb, workerHandlers, cfg.WorkerPoolSize)

	// Background sweep that feeds fallback-calculated records back to the
	// calculation service once it recovers.
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		NovedadRepo: novedadRepo,
		CB:          calculoCB,
		Dispatcher:  dispatcher,
	})

	r := router.New(cfg, db, rdb, calculoCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("NominaPro backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
