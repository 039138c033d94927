package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nominapro/internal/dto"
	"nominapro/internal/model"
	"nominapro/internal/nomina"
	"nominapro/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ErrNovedadNoEncontrada — the referenced record does not exist.
var ErrNovedadNoEncontrada = errors.New("novedad no encontrada")

// ErrPeriodoNoEncontrado — the referenced period does not exist.
var ErrPeriodoNoEncontrado = errors.New("período no encontrado")

// ErrEmpleadoNoEncontrado — the referenced employee does not exist.
var ErrEmpleadoNoEncontrado = errors.New("empleado no encontrado")

// ErrAjusteNoEncontrado — the referenced adjustment does not exist or is no
// longer pendiente.
var ErrAjusteNoEncontrado = errors.New("ajuste pendiente no encontrado")

type NovedadService interface {
	// Registrar submits one novelty. On an open period it is calculated,
	// persisted and the refreshed totals returned; on a closed period it is
	// redirected to the pending adjustment queue and reported as success
	// with EsPendiente=true — redirection is not an error.
	Registrar(ctx context.Context, draft dto.NovedadDraft) (*dto.RegistrarNovedadResponse, error)
	// RegistrarLote processes entries strictly in order, awaiting each
	// before the next; one entry failing does not abort the rest.
	RegistrarLote(ctx context.Context, req dto.LoteNovedadesRequest) (*dto.LoteNovedadesResponse, error)
	// Eliminar removes a record (open period) or enqueues a pending delete
	// (closed period). Re-deleting a record whose delete is already queued
	// returns the existing adjustment instead of enqueueing a second one.
	Eliminar(ctx context.Context, novedadID uuid.UUID) (*dto.RegistrarNovedadResponse, error)
	// DescartarAjuste drops a queued adjustment before it is applied. This
	// is the escape hatch for an entry that would otherwise keep a reopened
	// period from closing (e.g. a type the calculation service must value
	// while the service is down).
	DescartarAjuste(ctx context.Context, ajusteID uuid.UUID) error
}

type novedadService struct {
	novedadRepo   repository.NovedadRepository
	ajusteRepo    repository.AjusteRepository
	periodoRepo   repository.PeriodoRepository
	empleadoRepo  repository.EmpleadoRepository
	calc          CalculoService
	reconciliador ReconciliadorService
}

func NewNovedadService(
	novedadRepo repository.NovedadRepository,
	ajusteRepo repository.AjusteRepository,
	periodoRepo repository.PeriodoRepository,
	empleadoRepo repository.EmpleadoRepository,
	calc CalculoService,
	reconciliador ReconciliadorService,
) NovedadService {
	return &novedadService{
		novedadRepo:   novedadRepo,
		ajusteRepo:    ajusteRepo,
		periodoRepo:   periodoRepo,
		empleadoRepo:  empleadoRepo,
		calc:          calc,
		reconciliador: reconciliador,
	}
}

// ajustePayload is the serialized draft stored inside a pending create
// adjustment. ValorEstimado/DetalleEstimado are display-only hints computed
// at enqueue time; the drain recomputes the authoritative value.
type ajustePayload struct {
	Tipo            string           `json:"tipo"`
	Subtipo         *string          `json:"subtipo,omitempty"`
	Dias            *int             `json:"dias,omitempty"`
	Horas           *decimal.Decimal `json:"horas,omitempty"`
	FechaInicio     *string          `json:"fecha_inicio,omitempty"`
	FechaFin        *string          `json:"fecha_fin,omitempty"`
	ValorManual     *decimal.Decimal `json:"valor_manual,omitempty"`
	Observacion     *string          `json:"observacion,omitempty"`
	ValorEstimado   *decimal.Decimal `json:"valor_estimado,omitempty"`
	DetalleEstimado *string          `json:"detalle_estimado,omitempty"`
}

func (p ajustePayload) draft(empleadoID, periodoID uuid.UUID) dto.NovedadDraft {
	return dto.NovedadDraft{
		EmpleadoID:  empleadoID.String(),
		PeriodoID:   periodoID.String(),
		Tipo:        p.Tipo,
		Subtipo:     p.Subtipo,
		Dias:        p.Dias,
		Horas:       p.Horas,
		FechaInicio: p.FechaInicio,
		FechaFin:    p.FechaFin,
		ValorManual: p.ValorManual,
		Observacion: p.Observacion,
	}
}

// ── Registrar ─────────────────────────────────────────────────────────────────

func (s *novedadService) Registrar(ctx context.Context, draft dto.NovedadDraft) (*dto.RegistrarNovedadResponse, error) {
	empleadoID, err := uuid.Parse(draft.EmpleadoID)
	if err != nil {
		return nil, nomina.NuevaValidacion(map[string]string{"empleado_id": "UUID inválido"})
	}
	periodoID, err := uuid.Parse(draft.PeriodoID)
	if err != nil {
		return nil, nomina.NuevaValidacion(map[string]string{"periodo_id": "UUID inválido"})
	}

	if err := ValidarEstructura(draft); err != nil {
		return nil, err
	}

	periodo, err := s.periodoRepo.FindByID(ctx, periodoID)
	if err != nil {
		return nil, ErrPeriodoNoEncontrado
	}
	empleado, err := s.empleadoRepo.FindByID(ctx, empleadoID)
	if err != nil {
		return nil, ErrEmpleadoNoEncontrado
	}

	fecha := fechaEfectiva(draft)

	// Closed period: redirect to the pending adjustment queue.
	if !periodo.PuedeMutarDirecto() {
		ajuste, err := s.encolarCreacion(ctx, empleadoID, periodoID, empleado.SalarioBase, draft, fecha)
		if err != nil {
			return nil, err
		}
		ajusteID := ajuste.ID.String()
		return &dto.RegistrarNovedadResponse{EsPendiente: true, AjusteID: &ajusteID}, nil
	}

	// Open period: authoritative valuation, then persist.
	val, err := s.calc.Valorar(ctx, empleado.SalarioBase, draft, fecha)
	if err != nil {
		return nil, err
	}

	novedad := novedadDesdeDraft(empleadoID, periodoID, draft, val)
	if err := s.novedadRepo.Create(ctx, novedad); err != nil {
		return nil, err
	}

	// Totals are computed authoritatively outside this call path, so
	// re-fetch rather than trusting local state.
	totales, err := s.reconciliador.Totales(ctx, empleadoID, periodoID)
	if err != nil {
		return nil, err
	}
	resp := novedadToResponse(novedad)
	return &dto.RegistrarNovedadResponse{Novedad: &resp, Totales: totales}, nil
}

func (s *novedadService) encolarCreacion(ctx context.Context, empleadoID, periodoID uuid.UUID, salario decimal.Decimal, draft dto.NovedadDraft, fecha time.Time) (*model.AjustePendiente, error) {
	payload := ajustePayload{
		Tipo:        draft.Tipo,
		Subtipo:     draft.Subtipo,
		Dias:        draft.Dias,
		Horas:       draft.Horas,
		FechaInicio: draft.FechaInicio,
		FechaFin:    draft.FechaFin,
		ValorManual: draft.ValorManual,
		Observacion: draft.Observacion,
	}

	// Best-effort estimate for the pending bucket; enqueueing never fails
	// because a preview could not be computed.
	if draft.ValorManual != nil {
		v := draft.ValorManual.Round(2)
		payload.ValorEstimado = &v
	} else if res, err := nomina.Calcular(entradaLocal(salario, draft, fecha)); err == nil {
		payload.ValorEstimado = &res.Valor
		payload.DetalleEstimado = &res.Detalle
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	ajuste := &model.AjustePendiente{
		Operacion:  model.AjusteCrear,
		EmpleadoID: empleadoID,
		PeriodoID:  periodoID,
		Payload:    raw,
	}
	if err := s.ajusteRepo.Create(ctx, ajuste); err != nil {
		return nil, err
	}
	log.Info().
		Str("empleado_id", empleadoID.String()).
		Str("periodo_id", periodoID.String()).
		Str("tipo", draft.Tipo).
		Msg("novedad: período cerrado, creación redirigida a ajustes pendientes")
	return ajuste, nil
}

// ── RegistrarLote ─────────────────────────────────────────────────────────────

func (s *novedadService) RegistrarLote(ctx context.Context, req dto.LoteNovedadesRequest) (*dto.LoteNovedadesResponse, error) {
	resp := &dto.LoteNovedadesResponse{
		Resultados: make([]dto.LoteEntradaResultado, 0, len(req.Entradas)),
	}
	for i, draft := range req.Entradas {
		res := dto.LoteEntradaResultado{Indice: i}
		out, err := s.Registrar(ctx, draft)
		if err != nil {
			msg := err.Error()
			res.Error = &msg
			resp.Fallidas++
		} else {
			res.EsPendiente = out.EsPendiente
			if out.Novedad != nil {
				res.NovedadID = &out.Novedad.ID
			}
			resp.Exitosas++
		}
		resp.Resultados = append(resp.Resultados, res)
	}
	return resp, nil
}

// ── Eliminar ──────────────────────────────────────────────────────────────────

func (s *novedadService) Eliminar(ctx context.Context, novedadID uuid.UUID) (*dto.RegistrarNovedadResponse, error) {
	novedad, err := s.novedadRepo.FindByID(ctx, novedadID)
	if err != nil {
		return nil, ErrNovedadNoEncontrada
	}
	periodo, err := s.periodoRepo.FindByID(ctx, novedad.PeriodoID)
	if err != nil {
		return nil, ErrPeriodoNoEncontrado
	}

	if !periodo.PuedeMutarDirecto() {
		// A delete for this record may already be waiting in the queue.
		existentes, err := s.ajusteRepo.ListByEmpleadoPeriodo(ctx, novedad.EmpleadoID, novedad.PeriodoID)
		if err != nil {
			return nil, err
		}
		for i := range existentes {
			a := &existentes[i]
			if a.Operacion == model.AjusteEliminar && a.NovedadRef != nil && *a.NovedadRef == novedadID {
				ajusteID := a.ID.String()
				return &dto.RegistrarNovedadResponse{EsPendiente: true, AjusteID: &ajusteID}, nil
			}
		}

		ref := novedad.ID
		ajuste := &model.AjustePendiente{
			Operacion:  model.AjusteEliminar,
			EmpleadoID: novedad.EmpleadoID,
			PeriodoID:  novedad.PeriodoID,
			NovedadRef: &ref,
		}
		if err := s.ajusteRepo.Create(ctx, ajuste); err != nil {
			return nil, err
		}
		log.Info().
			Str("novedad_id", novedadID.String()).
			Str("periodo_id", periodo.ID.String()).
			Msg("novedad: período cerrado, eliminación redirigida a ajustes pendientes")
		ajusteID := ajuste.ID.String()
		return &dto.RegistrarNovedadResponse{EsPendiente: true, AjusteID: &ajusteID}, nil
	}

	if err := s.novedadRepo.Delete(ctx, novedadID); err != nil {
		return nil, err
	}
	totales, err := s.reconciliador.Totales(ctx, novedad.EmpleadoID, novedad.PeriodoID)
	if err != nil {
		return nil, err
	}
	return &dto.RegistrarNovedadResponse{Totales: totales}, nil
}

// ── Descartar ajuste ──────────────────────────────────────────────────────────

func (s *novedadService) DescartarAjuste(ctx context.Context, ajusteID uuid.UUID) error {
	ajuste, err := s.ajusteRepo.FindByID(ctx, ajusteID)
	if err != nil {
		return ErrAjusteNoEncontrado
	}
	if ajuste.Estado != model.AjustePendienteEstado {
		return ErrAjusteNoEncontrado
	}
	if err := s.ajusteRepo.Descartar(ctx, ajusteID); err != nil {
		return err
	}
	log.Info().
		Str("ajuste_id", ajusteID.String()).
		Str("periodo_id", ajuste.PeriodoID.String()).
		Str("operacion", ajuste.Operacion).
		Msg("novedad: ajuste pendiente descartado")
	return nil
}

// ── Validación estructural ────────────────────────────────────────────────────

// ValidarEstructura checks a draft against the type registry: required
// days/hours for the declared type, permitted subtype, coherent date range,
// manual value where the type is not auto-calculated. Rejected before any
// network call.
func ValidarEstructura(draft dto.NovedadDraft) error {
	d, err := nomina.Describir(nomina.Tipo(draft.Tipo))
	if err != nil {
		return err
	}

	campos := make(map[string]string)

	sub := ""
	if draft.Subtipo != nil {
		sub = *draft.Subtipo
	}
	if !nomina.AdmiteSubtipo(nomina.Tipo(draft.Tipo), sub) {
		campos["subtipo"] = fmt.Sprintf("subtipo %q no permitido para %s", sub, draft.Tipo)
	}
	if d.RequiereDias && draft.Dias == nil {
		campos["dias"] = "requerido para este tipo"
	}
	if d.RequiereHoras && (draft.Horas == nil || !draft.Horas.IsPositive()) {
		campos["horas"] = "requerido y mayor que cero para este tipo"
	}
	if !d.CalculoAutomatico && (draft.ValorManual == nil || !draft.ValorManual.IsPositive()) {
		campos["valor_manual"] = "requerido y mayor que cero para este tipo"
	}
	if draft.FechaFin != nil && draft.FechaInicio == nil {
		campos["fecha_inicio"] = "requerida cuando hay fecha_fin"
	}
	if draft.FechaInicio != nil && draft.FechaFin != nil {
		ini, err1 := time.Parse("2006-01-02", *draft.FechaInicio)
		fin, err2 := time.Parse("2006-01-02", *draft.FechaFin)
		if err1 == nil && err2 == nil && fin.Before(ini) {
			campos["fecha_fin"] = "anterior a fecha_inicio"
		}
	}

	if len(campos) > 0 {
		return nomina.NuevaValidacion(campos)
	}
	return nil
}

// fechaEfectiva picks the date that drives temporal rule resolution: the
// range start when the draft has one, today otherwise.
func fechaEfectiva(draft dto.NovedadDraft) time.Time {
	if draft.FechaInicio != nil {
		if f, err := time.Parse("2006-01-02", *draft.FechaInicio); err == nil {
			return f
		}
	}
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// ── Mapeo ─────────────────────────────────────────────────────────────────────

func novedadDesdeDraft(empleadoID, periodoID uuid.UUID, draft dto.NovedadDraft, val *Valoracion) *model.Novedad {
	n := &model.Novedad{
		EmpleadoID:     empleadoID,
		PeriodoID:      periodoID,
		Tipo:           draft.Tipo,
		Subtipo:        draft.Subtipo,
		Valor:          val.Valor,
		Dias:           draft.Dias,
		Horas:          draft.Horas,
		Observacion:    draft.Observacion,
		DetalleCalculo: val.Detalle,
		Estado:         model.NovedadRegistrada,
		OrigenCalculo:  val.Origen,
	}
	if draft.FechaInicio != nil {
		if f, err := time.Parse("2006-01-02", *draft.FechaInicio); err == nil {
			n.FechaInicio = &f
		}
	}
	if draft.FechaFin != nil {
		if f, err := time.Parse("2006-01-02", *draft.FechaFin); err == nil {
			n.FechaFin = &f
		}
	}
	// Degraded-mode values get re-attempted against the remote service.
	if val.Origen == model.OrigenLocal {
		retry := time.Now().Add(5 * time.Minute)
		n.NextRetryAt = &retry
	}
	return n
}

func novedadToResponse(n *model.Novedad) dto.NovedadResponse {
	resp := dto.NovedadResponse{
		ID:             n.ID.String(),
		EmpleadoID:     n.EmpleadoID.String(),
		PeriodoID:      n.PeriodoID.String(),
		Tipo:           n.Tipo,
		Subtipo:        n.Subtipo,
		Valor:          n.Valor,
		Dias:           n.Dias,
		Horas:          n.Horas,
		Observacion:    n.Observacion,
		DetalleCalculo: n.DetalleCalculo,
		Estado:         n.Estado,
		OrigenCalculo:  n.OrigenCalculo,
	}
	if d, err := nomina.Describir(nomina.Tipo(n.Tipo)); err == nil {
		resp.Categoria = string(d.Categoria)
	}
	if n.FechaInicio != nil {
		f := n.FechaInicio.Format("2006-01-02")
		resp.FechaInicio = &f
	}
	if n.FechaFin != nil {
		f := n.FechaFin.Format("2006-01-02")
		resp.FechaFin = &f
	}
	return resp
}

func ajusteToResponse(a *model.AjustePendiente) dto.AjustePendienteResponse {
	resp := dto.AjustePendienteResponse{
		ID:         a.ID.String(),
		Operacion:  a.Operacion,
		EmpleadoID: a.EmpleadoID.String(),
		PeriodoID:  a.PeriodoID.String(),
		CreadoEn:   a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.NovedadRef != nil {
		ref := a.NovedadRef.String()
		resp.NovedadRef = &ref
	}
	if len(a.Payload) > 0 {
		var p ajustePayload
		if err := json.Unmarshal(a.Payload, &p); err == nil {
			resp.Tipo = &p.Tipo
			resp.ValorEstimado = p.ValorEstimado
		}
	}
	return resp
}
