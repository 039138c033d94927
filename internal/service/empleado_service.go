package service

import (
	"context"

	"nominapro/internal/dto"
	"nominapro/internal/model"
	"nominapro/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type EmpleadoService interface {
	Crear(ctx context.Context, req dto.CrearEmpleadoRequest) (*dto.EmpleadoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.EmpleadoResponse, error)
	ListarActivos(ctx context.Context) ([]dto.EmpleadoResponse, error)
	ActualizarSalario(ctx context.Context, id uuid.UUID, req dto.ActualizarSalarioRequest) (*dto.EmpleadoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type empleadoService struct {
	repo repository.EmpleadoRepository
}

func NewEmpleadoService(repo repository.EmpleadoRepository) EmpleadoService {
	return &empleadoService{repo: repo}
}

func (s *empleadoService) Crear(ctx context.Context, req dto.CrearEmpleadoRequest) (*dto.EmpleadoResponse, error) {
	empleado := &model.Empleado{
		Documento:   req.Documento,
		Nombre:      req.Nombre,
		Email:       req.Email,
		SalarioBase: req.SalarioBase,
		Activo:      true,
	}
	if err := s.repo.Create(ctx, empleado); err != nil {
		return nil, err
	}
	resp := empleadoToResponse(empleado)
	return &resp, nil
}

func (s *empleadoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.EmpleadoResponse, error) {
	empleado, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrEmpleadoNoEncontrado
	}
	resp := empleadoToResponse(empleado)
	return &resp, nil
}

func (s *empleadoService) ListarActivos(ctx context.Context) ([]dto.EmpleadoResponse, error) {
	empleados, err := s.repo.ListActivos(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EmpleadoResponse, 0, len(empleados))
	for i := range empleados {
		out = append(out, empleadoToResponse(&empleados[i]))
	}
	return out, nil
}

// ActualizarSalario only affects calculations going forward: recorded
// novelty values are never revalued retroactively.
func (s *empleadoService) ActualizarSalario(ctx context.Context, id uuid.UUID, req dto.ActualizarSalarioRequest) (*dto.EmpleadoResponse, error) {
	empleado, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrEmpleadoNoEncontrado
	}
	anterior := empleado.SalarioBase
	empleado.SalarioBase = req.SalarioBase
	if err := s.repo.Update(ctx, empleado); err != nil {
		return nil, err
	}
	log.Info().
		Str("empleado_id", id.String()).
		Str("salario_anterior", anterior.StringFixed(2)).
		Str("salario_nuevo", req.SalarioBase.StringFixed(2)).
		Msg("empleado: salario base actualizado")
	resp := empleadoToResponse(empleado)
	return &resp, nil
}

func (s *empleadoService) Desactivar(ctx context.Context, id uuid.UUID) error {
	empleado, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrEmpleadoNoEncontrado
	}
	empleado.Activo = false
	return s.repo.Update(ctx, empleado)
}

func empleadoToResponse(e *model.Empleado) dto.EmpleadoResponse {
	return dto.EmpleadoResponse{
		ID:          e.ID.String(),
		Documento:   e.Documento,
		Nombre:      e.Nombre,
		Email:       e.Email,
		SalarioBase: e.SalarioBase,
		Activo:      e.Activo,
	}
}
