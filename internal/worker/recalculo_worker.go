package worker

// recalculo_worker.go
// Upgrades degraded novelty values: records calculated with the local
// fallback (origen_calculo='local') are re-submitted to the calculation
// service so the authoritative value replaces the approximation.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nominapro/internal/infra"
	"nominapro/internal/model"
	"nominapro/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MaxRecalculoRetries bounds background upgrade attempts per record. The
// local value stands either way; past this bound the record goes to the DLQ
// for manual review instead of being retried forever.
const MaxRecalculoRetries = 5

// RecalculoJobPayload is the job envelope sent to QueueRecalculo.
type RecalculoJobPayload struct {
	NovedadID string `json:"novedad_id"`
}

type RecalculoWorker struct {
	novedadRepo  repository.NovedadRepository
	empleadoRepo repository.EmpleadoRepository
	client       *infra.CalculoClient
	cb           *infra.CircuitBreaker
	rdb          *redis.Client
}

func NewRecalculoWorker(
	novedadRepo repository.NovedadRepository,
	empleadoRepo repository.EmpleadoRepository,
	client *infra.CalculoClient,
	cb *infra.CircuitBreaker,
	rdb *redis.Client,
) *RecalculoWorker {
	return &RecalculoWorker{
		novedadRepo:  novedadRepo,
		empleadoRepo: empleadoRepo,
		client:       client,
		cb:           cb,
		rdb:          rdb,
	}
}

// Process re-attempts the remote calculation for one record. On success the
// value, trace and provenance are replaced atomically in the record row; on
// failure the retry bookkeeping advances and the record waits for the next
// cron sweep.
func (w *RecalculoWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload RecalculoJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("recalculo_worker: invalid payload")
		return
	}
	novedadID, err := uuid.Parse(payload.NovedadID)
	if err != nil {
		log.Error().Str("novedad_id", payload.NovedadID).Msg("recalculo_worker: invalid novedad_id")
		return
	}

	novedad, err := w.novedadRepo.FindByID(ctx, novedadID)
	if err != nil {
		log.Warn().Str("novedad_id", payload.NovedadID).Msg("recalculo_worker: record no longer exists — skipping")
		return
	}
	// Only degraded values qualify; a manual or already-authoritative value
	// re-enqueued by accident is a no-op.
	if novedad.OrigenCalculo != model.OrigenLocal {
		return
	}

	empleado, err := w.empleadoRepo.FindByID(ctx, novedad.EmpleadoID)
	if err != nil {
		log.Error().Err(err).Str("novedad_id", payload.NovedadID).Msg("recalculo_worker: empleado not found")
		return
	}

	req := infra.CalculoRequest{
		Tipo:        novedad.Tipo,
		Subtipo:     novedad.Subtipo,
		SalarioBase: empleado.SalarioBase,
		Dias:        novedad.Dias,
		Horas:       novedad.Horas,
		Fecha:       fechaCalculo(novedad),
	}

	var resp *infra.CalculoResponse
	cbErr := w.cb.Execute(func() error {
		r, err := w.client.Calcular(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})

	if cbErr != nil {
		novedad.RetryCount++
		errMsg := cbErr.Error()
		novedad.LastError = &errMsg

		if novedad.RetryCount >= MaxRecalculoRetries {
			novedad.NextRetryAt = nil
			log.Error().
				Str("novedad_id", novedad.ID.String()).
				Int("retries", novedad.RetryCount).
				Msg("recalculo_worker: max retries exceeded, moving to DLQ")
			SendToDLQ(ctx, w.rdb, QueueRecalculo, "recalculo", raw,
				fmt.Sprintf("max retries (%d) exceeded: %s", MaxRecalculoRetries, errMsg),
				novedad.RetryCount)
		} else {
			next := time.Now().Add(computeRetryBackoff(novedad.RetryCount))
			novedad.NextRetryAt = &next
			log.Warn().
				Str("novedad_id", novedad.ID.String()).
				Int("retry_count", novedad.RetryCount).
				Time("next_retry_at", next).
				Msg("recalculo_worker: remote calculation still unavailable")
		}
		if err := w.novedadRepo.Update(ctx, novedad); err != nil {
			log.Error().Err(err).Str("novedad_id", novedad.ID.String()).Msg("recalculo_worker: failed to persist retry state")
		}
		return
	}

	anterior := novedad.Valor
	novedad.Valor = resp.Valor.Round(2)
	novedad.DetalleCalculo = resp.DetalleCalculo
	novedad.OrigenCalculo = model.OrigenRemoto
	novedad.NextRetryAt = nil
	novedad.LastError = nil
	if err := w.novedadRepo.Update(ctx, novedad); err != nil {
		log.Error().Err(err).Str("novedad_id", novedad.ID.String()).Msg("recalculo_worker: failed to persist upgraded value")
		return
	}

	log.Info().
		Str("novedad_id", novedad.ID.String()).
		Str("valor_local", anterior.StringFixed(2)).
		Str("valor_remoto", novedad.Valor.StringFixed(2)).
		Int("total_retries", novedad.RetryCount).
		Msg("recalculo_worker: value upgraded to authoritative calculation")
}

// fechaCalculo picks the date that drove the original temporal resolution.
func fechaCalculo(n *model.Novedad) string {
	if n.FechaInicio != nil {
		return n.FechaInicio.Format("2006-01-02")
	}
	return n.CreatedAt.Format("2006-01-02")
}
