package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nominapro/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueRecalculo = "jobs:recalculo"
	QueueEmail     = "jobs:email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb      *redis.Client
	notifyTo string
}

func NewDispatcher(rdb *redis.Client, notifyTo string) *Dispatcher {
	return &Dispatcher{rdb: rdb, notifyTo: notifyTo}
}

// EnqueueRecalculo pushes a value-upgrade job to Redis.
func (d *Dispatcher) EnqueueRecalculo(ctx context.Context, payload interface{}) error {
	return d.enqueue(ctx, QueueRecalculo, "recalculo", payload)
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload interface{}) error {
	return d.enqueue(ctx, QueueEmail, "email", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// NotificarCierre implements service.Notificador. Dispatch failures are
// logged and swallowed — a notification never blocks a period close.
func (d *Dispatcher) NotificarCierre(periodo *model.PeriodoNomina, ajustesAplicados int) {
	if d.notifyTo == "" {
		return
	}
	neto := "n/d"
	if periodo.TotalNeto != nil {
		neto = periodo.TotalNeto.StringFixed(2)
	}
	job := EmailJobPayload{
		ToEmail: d.notifyTo,
		Subject: fmt.Sprintf("Período %s cerrado", periodo.Nombre),
		Body: fmt.Sprintf(
			"El período %s (%s a %s) fue cerrado.\nTotal neto: $%s\nAjustes pendientes aplicados: %d",
			periodo.Nombre,
			periodo.FechaInicio.Format("2006-01-02"),
			periodo.FechaFin.Format("2006-01-02"),
			neto, ajustesAplicados),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.EnqueueEmail(ctx, job); err != nil {
		log.Warn().Err(err).Str("periodo_id", periodo.ID.String()).Msg("dispatcher: no se pudo encolar el aviso de cierre")
	}
}

// NotificarReapertura implements service.Notificador.
func (d *Dispatcher) NotificarReapertura(periodo *model.PeriodoNomina, motivo string) {
	if d.notifyTo == "" {
		return
	}
	job := EmailJobPayload{
		ToEmail: d.notifyTo,
		Subject: fmt.Sprintf("Período %s reabierto", periodo.Nombre),
		Body:    fmt.Sprintf("El período %s fue reabierto para corrección.\nMotivo: %s", periodo.Nombre, motivo),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.EnqueueEmail(ctx, job); err != nil {
		log.Warn().Err(err).Str("periodo_id", periodo.ID.String()).Msg("dispatcher: no se pudo encolar el aviso de reapertura")
	}
}

// WorkerHandlers routes dequeued jobs to their processors.
type WorkerHandlers struct {
	Email     *EmailWorker
	Recalculo *RecalculoWorker
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers WorkerHandlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers WorkerHandlers, id int) {
	queues := []string{QueueRecalculo, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, handlers WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	switch queue {
	case QueueEmail:
		if handlers.Email != nil {
			handlers.Email.Process(ctx, job.Payload)
		}
	case QueueRecalculo:
		if handlers.Recalculo != nil {
			handlers.Recalculo.Process(ctx, job.Payload)
		}
	default:
		log.Warn().Str("queue", queue).Str("type", job.Type).Msg("job from unknown queue dropped")
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
