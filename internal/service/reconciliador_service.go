package service

import (
	"context"
	"encoding/json"
	"fmt"

	"nominapro/internal/dto"
	"nominapro/internal/model"
	"nominapro/internal/nomina"
	"nominapro/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliadorService is the read side of the ledger: confirmed records,
// in-flight pending adjustments and the totals derived from both. Totals are
// always a fresh fold over the records, never a stored snapshot.
type ReconciliadorService interface {
	ListarParaMostrar(ctx context.Context, empleadoID, periodoID uuid.UUID) (*dto.NovedadesEmpleadoResponse, error)
	// Totales returns the confirmed fold plus an estimate with the pending
	// queue applied on top.
	Totales(ctx context.Context, empleadoID, periodoID uuid.UUID) (*dto.TotalesLiquidacion, error)
	// TotalesPeriodo folds every confirmed record in the period, across
	// employees. Used for the closing snapshot.
	TotalesPeriodo(ctx context.Context, periodoID uuid.UUID) (*dto.Totales, error)
}

type reconciliadorService struct {
	novedadRepo repository.NovedadRepository
	ajusteRepo  repository.AjusteRepository
}

func NewReconciliadorService(novedadRepo repository.NovedadRepository, ajusteRepo repository.AjusteRepository) ReconciliadorService {
	return &reconciliadorService{novedadRepo: novedadRepo, ajusteRepo: ajusteRepo}
}

func (s *reconciliadorService) ListarParaMostrar(ctx context.Context, empleadoID, periodoID uuid.UUID) (*dto.NovedadesEmpleadoResponse, error) {
	novedades, err := s.novedadRepo.ListByEmpleadoPeriodo(ctx, empleadoID, periodoID)
	if err != nil {
		return nil, err
	}
	ajustes, err := s.ajusteRepo.ListByEmpleadoPeriodo(ctx, empleadoID, periodoID)
	if err != nil {
		return nil, err
	}

	resp := &dto.NovedadesEmpleadoResponse{
		Confirmadas: make([]dto.NovedadResponse, 0, len(novedades)),
		Pendientes:  make([]dto.AjustePendienteResponse, 0, len(ajustes)),
	}
	for i := range novedades {
		resp.Confirmadas = append(resp.Confirmadas, novedadToResponse(&novedades[i]))
	}
	for i := range ajustes {
		resp.Pendientes = append(resp.Pendientes, ajusteToResponse(&ajustes[i]))
	}
	return resp, nil
}

func (s *reconciliadorService) Totales(ctx context.Context, empleadoID, periodoID uuid.UUID) (*dto.TotalesLiquidacion, error) {
	novedades, err := s.novedadRepo.ListByEmpleadoPeriodo(ctx, empleadoID, periodoID)
	if err != nil {
		return nil, err
	}
	confirmado, err := plegarNovedades(novedades)
	if err != nil {
		return nil, err
	}

	ajustes, err := s.ajusteRepo.ListByEmpleadoPeriodo(ctx, empleadoID, periodoID)
	if err != nil {
		return nil, err
	}
	estimado, err := aplicarEstimado(*confirmado, ajustes, novedades)
	if err != nil {
		return nil, err
	}

	return &dto.TotalesLiquidacion{Confirmado: *confirmado, Estimado: *estimado}, nil
}

func (s *reconciliadorService) TotalesPeriodo(ctx context.Context, periodoID uuid.UUID) (*dto.Totales, error) {
	novedades, err := s.novedadRepo.ListByPeriodo(ctx, periodoID)
	if err != nil {
		return nil, err
	}
	return plegarNovedades(novedades)
}

// plegarNovedades folds records into devengos/deducciones/neto. A type the
// registry does not know means corrupt data and is an error, never a silent
// skip.
func plegarNovedades(novedades []model.Novedad) (*dto.Totales, error) {
	t := dto.Totales{
		Devengos:    decimal.Zero,
		Deducciones: decimal.Zero,
		Neto:        decimal.Zero,
	}
	for i := range novedades {
		n := &novedades[i]
		d, err := nomina.Describir(nomina.Tipo(n.Tipo))
		if err != nil {
			return nil, fmt.Errorf("novedad %s: %w", n.ID, err)
		}
		switch d.Categoria {
		case nomina.CategoriaDevengo:
			t.Devengos = t.Devengos.Add(n.Valor)
		case nomina.CategoriaDeduccion:
			t.Deducciones = t.Deducciones.Add(n.Valor)
		}
	}
	t.Neto = t.Devengos.Sub(t.Deducciones)
	return &t, nil
}

// aplicarEstimado layers the pending queue on top of the confirmed fold:
// crear adds the enqueue-time estimate, eliminar subtracts the referenced
// record's value. Entries whose effect cannot be estimated (no stored
// estimate, dangling reference) are skipped — the estimate is display-only.
func aplicarEstimado(base dto.Totales, ajustes []model.AjustePendiente, novedades []model.Novedad) (*dto.Totales, error) {
	porID := make(map[uuid.UUID]*model.Novedad, len(novedades))
	for i := range novedades {
		porID[novedades[i].ID] = &novedades[i]
	}

	t := base
	restadas := make(map[uuid.UUID]bool)
	for i := range ajustes {
		a := &ajustes[i]
		switch a.Operacion {
		case model.AjusteCrear:
			var p ajustePayload
			if err := json.Unmarshal(a.Payload, &p); err != nil || p.ValorEstimado == nil {
				continue
			}
			d, err := nomina.Describir(nomina.Tipo(p.Tipo))
			if err != nil {
				return nil, fmt.Errorf("ajuste %s: %w", a.ID, err)
			}
			switch d.Categoria {
			case nomina.CategoriaDevengo:
				t.Devengos = t.Devengos.Add(*p.ValorEstimado)
			case nomina.CategoriaDeduccion:
				t.Deducciones = t.Deducciones.Add(*p.ValorEstimado)
			}

		case model.AjusteEliminar:
			// Duplicate deletes for the same record subtract once.
			if a.NovedadRef == nil || restadas[*a.NovedadRef] {
				continue
			}
			n, ok := porID[*a.NovedadRef]
			if !ok {
				continue
			}
			restadas[*a.NovedadRef] = true
			d, err := nomina.Describir(nomina.Tipo(n.Tipo))
			if err != nil {
				return nil, fmt.Errorf("novedad %s: %w", n.ID, err)
			}
			switch d.Categoria {
			case nomina.CategoriaDevengo:
				t.Devengos = t.Devengos.Sub(n.Valor)
			case nomina.CategoriaDeduccion:
				t.Deducciones = t.Deducciones.Sub(n.Valor)
			}
		}
	}
	t.Neto = t.Devengos.Sub(t.Deducciones)
	return &t, nil
}
