package worker

// retry_cron.go
// Background goroutine that periodically sweeps novelty records stuck with
// a fallback-calculated value (origen_calculo='local') whose next_retry_at
// is in the past, and feeds them to the recalculation workers. Uses the
// Circuit Breaker state to avoid hammering a downed calculation service.

import (
	"context"
	"time"

	"nominapro/internal/infra"
	"nominapro/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	NovedadRepo repository.NovedadRepository
	CB          *infra.CircuitBreaker
	Dispatcher  *Dispatcher
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries due records and enqueues recalculation jobs for the worker pool.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed service
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	now := time.Now()
	novedades, err := cfg.NovedadRepo.ListPendingRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}
	if len(novedades) == 0 {
		return
	}

	log.Info().Int("count", len(novedades)).Msg("retry_cron: enqueuing recalculation jobs")

	for i := range novedades {
		payload := RecalculoJobPayload{NovedadID: novedades[i].ID.String()}
		if err := cfg.Dispatcher.EnqueueRecalculo(ctx, payload); err != nil {
			log.Error().Err(err).Str("novedad_id", payload.NovedadID).Msg("retry_cron: failed to enqueue job")
			return
		}
		// Push next_retry_at forward so the next tick does not re-enqueue
		// the same record while the job is still in flight.
		next := now.Add(retryTickInterval * 2)
		novedades[i].NextRetryAt = &next
		if err := cfg.NovedadRepo.Update(ctx, &novedades[i]); err != nil {
			log.Error().Err(err).Str("novedad_id", payload.NovedadID).Msg("retry_cron: failed to defer record")
		}
	}
}

// computeRetryBackoff returns the wait before attempt n+1: 1m, 2m, 4m …
// capped at 30 minutes.
func computeRetryBackoff(retryCount int) time.Duration {
	backoff := time.Minute * time.Duration(1<<uint(retryCount-1))
	if backoff > 30*time.Minute {
		backoff = 30 * time.Minute
	}
	return backoff
}
