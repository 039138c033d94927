package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"nominapro/internal/infra"
	"nominapro/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── In-memory repositories ───────────────────────────────────────────────────

type fakeNovedadRepo struct {
	mu        sync.Mutex
	novedades map[uuid.UUID]*model.Novedad
	reloj     int64
}

func newFakeNovedadRepo() *fakeNovedadRepo {
	return &fakeNovedadRepo{novedades: make(map[uuid.UUID]*model.Novedad)}
}

func (r *fakeNovedadRepo) tick() time.Time {
	r.reloj++
	return time.Unix(1_700_000_000+r.reloj, 0)
}

func (r *fakeNovedadRepo) Create(_ context.Context, n *model.Novedad) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	} else if _, ok := r.novedades[n.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	n.CreatedAt = r.tick()
	copia := *n
	r.novedades[n.ID] = &copia
	return nil
}

func (r *fakeNovedadRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Novedad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.novedades[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *n
	return &copia, nil
}

func (r *fakeNovedadRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.novedades, id) // deleting an absent row is a no-op, like gorm
	return nil
}

func (r *fakeNovedadRepo) Update(_ context.Context, n *model.Novedad) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copia := *n
	r.novedades[n.ID] = &copia
	return nil
}

func (r *fakeNovedadRepo) ListByEmpleadoPeriodo(_ context.Context, empleadoID, periodoID uuid.UUID) ([]model.Novedad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Novedad
	for _, n := range r.novedades {
		if n.EmpleadoID == empleadoID && n.PeriodoID == periodoID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeNovedadRepo) ListByPeriodo(_ context.Context, periodoID uuid.UUID) ([]model.Novedad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Novedad
	for _, n := range r.novedades {
		if n.PeriodoID == periodoID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmpleadoID != out[j].EmpleadoID {
			return out[i].EmpleadoID.String() < out[j].EmpleadoID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeNovedadRepo) ListPendingRetries(_ context.Context, now time.Time, limit int) ([]model.Novedad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Novedad
	for _, n := range r.novedades {
		if n.OrigenCalculo == model.OrigenLocal && n.NextRetryAt != nil && !n.NextRetryAt.After(now) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextRetryAt.Before(*out[j].NextRetryAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeAjusteRepo struct {
	mu      sync.Mutex
	ajustes map[uuid.UUID]*model.AjustePendiente
	reloj   int64
}

func newFakeAjusteRepo() *fakeAjusteRepo {
	return &fakeAjusteRepo{ajustes: make(map[uuid.UUID]*model.AjustePendiente)}
}

func (r *fakeAjusteRepo) Create(_ context.Context, a *model.AjustePendiente) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Estado == "" {
		a.Estado = model.AjustePendienteEstado
	}
	r.reloj++
	a.CreatedAt = time.Unix(1_700_000_000+r.reloj, 0)
	copia := *a
	r.ajustes[a.ID] = &copia
	return nil
}

func (r *fakeAjusteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.AjustePendiente, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.ajustes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *a
	return &copia, nil
}

func (r *fakeAjusteRepo) listar(filtro func(*model.AjustePendiente) bool) []model.AjustePendiente {
	var out []model.AjustePendiente
	for _, a := range r.ajustes {
		if filtro(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmpleadoID != out[j].EmpleadoID {
			return out[i].EmpleadoID.String() < out[j].EmpleadoID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *fakeAjusteRepo) ListPendientes(_ context.Context, periodoID uuid.UUID) ([]model.AjustePendiente, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listar(func(a *model.AjustePendiente) bool {
		return a.PeriodoID == periodoID && a.Estado == model.AjustePendienteEstado
	}), nil
}

func (r *fakeAjusteRepo) ListByEmpleadoPeriodo(_ context.Context, empleadoID, periodoID uuid.UUID) ([]model.AjustePendiente, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listar(func(a *model.AjustePendiente) bool {
		return a.EmpleadoID == empleadoID && a.PeriodoID == periodoID && a.Estado == model.AjustePendienteEstado
	}), nil
}

func (r *fakeAjusteRepo) MarcarAplicado(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.ajustes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	a.Estado = model.AjusteAplicadoEstado
	a.AplicadoEn = &now
	return nil
}

func (r *fakeAjusteRepo) Descartar(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.ajustes[id]
	if ok && a.Estado == model.AjustePendienteEstado {
		delete(r.ajustes, id)
	}
	return nil
}

func (r *fakeAjusteRepo) PurgeAplicados(_ context.Context, periodoID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, a := range r.ajustes {
		if a.PeriodoID == periodoID && a.Estado == model.AjusteAplicadoEstado {
			delete(r.ajustes, id)
		}
	}
	return nil
}

type fakePeriodoRepo struct {
	mu       sync.Mutex
	periodos map[uuid.UUID]*model.PeriodoNomina
}

func newFakePeriodoRepo() *fakePeriodoRepo {
	return &fakePeriodoRepo{periodos: make(map[uuid.UUID]*model.PeriodoNomina)}
}

func (r *fakePeriodoRepo) Create(_ context.Context, p *model.PeriodoNomina) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	copia := *p
	r.periodos[p.ID] = &copia
	return nil
}

func (r *fakePeriodoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PeriodoNomina, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.periodos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *p
	return &copia, nil
}

func (r *fakePeriodoRepo) List(_ context.Context) ([]model.PeriodoNomina, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PeriodoNomina
	for _, p := range r.periodos {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FechaInicio.After(out[j].FechaInicio) })
	return out, nil
}

func (r *fakePeriodoRepo) Update(_ context.Context, p *model.PeriodoNomina) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copia := *p
	r.periodos[p.ID] = &copia
	return nil
}

type fakeEmpleadoRepo struct {
	mu        sync.Mutex
	empleados map[uuid.UUID]*model.Empleado
}

func newFakeEmpleadoRepo() *fakeEmpleadoRepo {
	return &fakeEmpleadoRepo{empleados: make(map[uuid.UUID]*model.Empleado)}
}

func (r *fakeEmpleadoRepo) Create(_ context.Context, e *model.Empleado) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	copia := *e
	r.empleados[e.ID] = &copia
	return nil
}

func (r *fakeEmpleadoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Empleado, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.empleados[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *e
	return &copia, nil
}

func (r *fakeEmpleadoRepo) ListActivos(_ context.Context) ([]model.Empleado, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Empleado
	for _, e := range r.empleados {
		if e.Activo {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *fakeEmpleadoRepo) Update(_ context.Context, e *model.Empleado) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copia := *e
	r.empleados[e.ID] = &copia
	return nil
}

// ── Stub remote calculation service ──────────────────────────────────────────

var errRemotoCaido = errors.New("calculo service: connection refused")

// stubRemoto counts calls and either fails or answers with a fixed value.
type stubRemoto struct {
	mu       sync.Mutex
	caido    bool
	llamadas int
	resp     infra.CalculoResponse
}

func (s *stubRemoto) Calcular(_ context.Context, _ infra.CalculoRequest) (*infra.CalculoResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.llamadas++
	if s.caido {
		return nil, errRemotoCaido
	}
	copia := s.resp
	return &copia, nil
}

func (s *stubRemoto) vecesLlamado() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.llamadas
}
