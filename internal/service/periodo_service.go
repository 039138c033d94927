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
	"gorm.io/gorm"
)

// ErrTransicionInvalida — the requested lifecycle move is not legal from the
// period's current state.
var ErrTransicionInvalida = errors.New("transición de estado no permitida")

// ErrCierreBloqueado — the close guard failed: some employee's liquidation
// cannot be computed.
var ErrCierreBloqueado = errors.New("cierre bloqueado")

// Notificador despacha avisos por correo fuera del camino crítico. Nil-safe:
// un servicio construido sin notificador simplemente no avisa.
type Notificador interface {
	NotificarCierre(periodo *model.PeriodoNomina, ajustesAplicados int)
	NotificarReapertura(periodo *model.PeriodoNomina, motivo string)
}

type PeriodoService interface {
	Crear(ctx context.Context, req dto.CrearPeriodoRequest) (*dto.PeriodoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.PeriodoResponse, error)
	Listar(ctx context.Context) ([]dto.PeriodoResponse, error)
	// Cerrar moves the period to cerrado. On a reabierto → cerrado close the
	// pending adjustment queue is drained first; any entry failing aborts the
	// close and the period stays reabierto.
	Cerrar(ctx context.Context, id uuid.UUID) (*dto.CerrarPeriodoResponse, error)
	// Reabrir opens the single correction window on a closed period.
	Reabrir(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID, req dto.ReabrirPeriodoRequest) (*dto.PeriodoResponse, error)
}

type periodoService struct {
	periodoRepo   repository.PeriodoRepository
	ajusteRepo    repository.AjusteRepository
	novedadRepo   repository.NovedadRepository
	empleadoRepo  repository.EmpleadoRepository
	calc          CalculoService
	reconciliador ReconciliadorService
	notificador   Notificador
}

func NewPeriodoService(
	periodoRepo repository.PeriodoRepository,
	ajusteRepo repository.AjusteRepository,
	novedadRepo repository.NovedadRepository,
	empleadoRepo repository.EmpleadoRepository,
	calc CalculoService,
	reconciliador ReconciliadorService,
	notificador Notificador,
) PeriodoService {
	return &periodoService{
		periodoRepo:   periodoRepo,
		ajusteRepo:    ajusteRepo,
		novedadRepo:   novedadRepo,
		empleadoRepo:  empleadoRepo,
		calc:          calc,
		reconciliador: reconciliador,
		notificador:   notificador,
	}
}

func (s *periodoService) Crear(ctx context.Context, req dto.CrearPeriodoRequest) (*dto.PeriodoResponse, error) {
	inicio, err := time.Parse("2006-01-02", req.FechaInicio)
	if err != nil {
		return nil, nomina.NuevaValidacion(map[string]string{"fecha_inicio": "fecha inválida"})
	}
	fin, err := time.Parse("2006-01-02", req.FechaFin)
	if err != nil {
		return nil, nomina.NuevaValidacion(map[string]string{"fecha_fin": "fecha inválida"})
	}
	if fin.Before(inicio) {
		return nil, nomina.NuevaValidacion(map[string]string{"fecha_fin": "anterior a fecha_inicio"})
	}

	periodo := &model.PeriodoNomina{
		Nombre:      req.Nombre,
		FechaInicio: inicio,
		FechaFin:    fin,
		Estado:      model.PeriodoBorrador,
	}
	if err := s.periodoRepo.Create(ctx, periodo); err != nil {
		return nil, err
	}
	resp := periodoToResponse(periodo)
	return &resp, nil
}

func (s *periodoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.PeriodoResponse, error) {
	periodo, err := s.periodoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrPeriodoNoEncontrado
	}
	resp := periodoToResponse(periodo)
	return &resp, nil
}

func (s *periodoService) Listar(ctx context.Context) ([]dto.PeriodoResponse, error) {
	periodos, err := s.periodoRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PeriodoResponse, 0, len(periodos))
	for i := range periodos {
		out = append(out, periodoToResponse(&periodos[i]))
	}
	return out, nil
}

// ── Cierre ────────────────────────────────────────────────────────────────────

func (s *periodoService) Cerrar(ctx context.Context, id uuid.UUID) (*dto.CerrarPeriodoResponse, error) {
	periodo, err := s.periodoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrPeriodoNoEncontrado
	}
	if !periodo.TransicionValida(model.PeriodoCerrado) {
		return nil, fmt.Errorf("%w: %s → %s", ErrTransicionInvalida, periodo.Estado, model.PeriodoCerrado)
	}

	if err := s.validarCierre(ctx); err != nil {
		return nil, err
	}

	aplicados := 0
	if periodo.Estado == model.PeriodoReabierto {
		aplicados, err = s.drenarAjustes(ctx, periodo)
		if err != nil {
			log.Error().Err(err).
				Str("periodo_id", id.String()).
				Int("ajustes_aplicados", aplicados).
				Msg("periodo: drenaje de ajustes interrumpido, el período permanece reabierto")
			return nil, err
		}
	}

	totales, err := s.reconciliador.TotalesPeriodo(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	periodo.Estado = model.PeriodoCerrado
	periodo.TotalDevengos = &totales.Devengos
	periodo.TotalDeducciones = &totales.Deducciones
	periodo.TotalNeto = &totales.Neto
	periodo.CerradoEn = &now
	if err := s.periodoRepo.Update(ctx, periodo); err != nil {
		return nil, err
	}

	// Applied markers only go away once the period row itself says cerrado.
	if aplicados > 0 {
		if err := s.ajusteRepo.PurgeAplicados(ctx, id); err != nil {
			log.Warn().Err(err).Str("periodo_id", id.String()).Msg("periodo: no se pudieron purgar los ajustes aplicados")
		}
	}

	log.Info().
		Str("periodo_id", id.String()).
		Str("total_neto", totales.Neto.String()).
		Int("ajustes_aplicados", aplicados).
		Msg("periodo cerrado")

	if s.notificador != nil {
		s.notificador.NotificarCierre(periodo, aplicados)
	}

	return &dto.CerrarPeriodoResponse{Periodo: periodoToResponse(periodo), AjustesAplicados: aplicados}, nil
}

// validarCierre is the close guard: every active employee must have a
// computable liquidation, which at minimum means a positive base salary.
func (s *periodoService) validarCierre(ctx context.Context) error {
	empleados, err := s.empleadoRepo.ListActivos(ctx)
	if err != nil {
		return err
	}
	for i := range empleados {
		if !empleados[i].SalarioBase.IsPositive() {
			return fmt.Errorf("%w: empleado %s sin salario base válido", ErrCierreBloqueado, empleados[i].ID)
		}
	}
	return nil
}

// drenarAjustes applies the pending queue in order (grouped by employee,
// FIFO within each). Idempotence under partial failure: a materialized
// novelty reuses the adjustment's ID, so re-applying an entry that committed
// before a crash hits the primary key and is treated as already applied.
func (s *periodoService) drenarAjustes(ctx context.Context, periodo *model.PeriodoNomina) (int, error) {
	ajustes, err := s.ajusteRepo.ListPendientes(ctx, periodo.ID)
	if err != nil {
		return 0, err
	}

	aplicados := 0
	for i := range ajustes {
		a := &ajustes[i]
		if err := s.aplicarAjuste(ctx, periodo, a); err != nil {
			return aplicados, fmt.Errorf("ajuste %s (%s): %w", a.ID, a.Operacion, err)
		}
		if err := s.ajusteRepo.MarcarAplicado(ctx, a.ID); err != nil {
			return aplicados, err
		}
		aplicados++
	}
	return aplicados, nil
}

func (s *periodoService) aplicarAjuste(ctx context.Context, periodo *model.PeriodoNomina, a *model.AjustePendiente) error {
	switch a.Operacion {
	case model.AjusteEliminar:
		if a.NovedadRef == nil {
			return errors.New("ajuste eliminar sin referencia")
		}
		// Gorm deletes are no-ops on absent rows, so a replay is harmless.
		return s.novedadRepo.Delete(ctx, *a.NovedadRef)

	case model.AjusteCrear:
		var payload ajustePayload
		if err := json.Unmarshal(a.Payload, &payload); err != nil {
			return err
		}
		draft := payload.draft(a.EmpleadoID, periodo.ID)
		if err := ValidarEstructura(draft); err != nil {
			return err
		}
		empleado, err := s.empleadoRepo.FindByID(ctx, a.EmpleadoID)
		if err != nil {
			return ErrEmpleadoNoEncontrado
		}

		fecha := periodo.FechaFin
		if draft.FechaInicio != nil {
			if f, perr := time.Parse("2006-01-02", *draft.FechaInicio); perr == nil {
				fecha = f
			}
		}

		val, err := s.calc.Valorar(ctx, empleado.SalarioBase, draft, fecha)
		if err != nil {
			return err
		}

		novedad := novedadDesdeDraft(a.EmpleadoID, periodo.ID, draft, val)
		novedad.ID = a.ID
		if err := s.novedadRepo.Create(ctx, novedad); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				log.Warn().Str("ajuste_id", a.ID.String()).Msg("periodo: ajuste ya materializado, se marca como aplicado")
				return nil
			}
			return err
		}
		return nil

	default:
		return fmt.Errorf("operación de ajuste desconocida: %s", a.Operacion)
	}
}

// ── Reapertura ────────────────────────────────────────────────────────────────

func (s *periodoService) Reabrir(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID, req dto.ReabrirPeriodoRequest) (*dto.PeriodoResponse, error) {
	periodo, err := s.periodoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrPeriodoNoEncontrado
	}
	if !periodo.TransicionValida(model.PeriodoReabierto) {
		return nil, fmt.Errorf("%w: %s → %s", ErrTransicionInvalida, periodo.Estado, model.PeriodoReabierto)
	}

	now := time.Now()
	periodo.Estado = model.PeriodoReabierto
	periodo.ReabiertoPor = &usuarioID
	periodo.ReabiertoEn = &now
	periodo.MotivoReapertura = &req.Motivo
	if err := s.periodoRepo.Update(ctx, periodo); err != nil {
		return nil, err
	}

	log.Info().
		Str("periodo_id", id.String()).
		Str("usuario_id", usuarioID.String()).
		Str("motivo", req.Motivo).
		Msg("periodo reabierto")

	if s.notificador != nil {
		s.notificador.NotificarReapertura(periodo, req.Motivo)
	}

	resp := periodoToResponse(periodo)
	return &resp, nil
}

func periodoToResponse(p *model.PeriodoNomina) dto.PeriodoResponse {
	resp := dto.PeriodoResponse{
		ID:               p.ID.String(),
		Nombre:           p.Nombre,
		FechaInicio:      p.FechaInicio.Format("2006-01-02"),
		FechaFin:         p.FechaFin.Format("2006-01-02"),
		Estado:           p.Estado,
		MotivoReapertura: p.MotivoReapertura,
		TotalDevengos:    p.TotalDevengos,
		TotalDeducciones: p.TotalDeducciones,
		TotalNeto:        p.TotalNeto,
	}
	if p.ReabiertoPor != nil {
		v := p.ReabiertoPor.String()
		resp.ReabiertoPor = &v
	}
	if p.ReabiertoEn != nil {
		v := p.ReabiertoEn.UTC().Format(time.RFC3339)
		resp.ReabiertoEn = &v
	}
	if p.CerradoEn != nil {
		v := p.CerradoEn.UTC().Format(time.RFC3339)
		resp.CerradoEn = &v
	}
	return resp
}
