package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nominapro/internal/dto"
	"nominapro/internal/infra"
	"nominapro/internal/model"
	"nominapro/internal/nomina"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Valoracion is the outcome of valuing one novelty draft: the monetary
// value, its audit trace, and where the number came from.
type Valoracion struct {
	Valor   decimal.Decimal
	Detalle string
	Origen  string // model.OrigenRemoto | OrigenLocal | OrigenManual
}

// CalculoService values novelty drafts. The remote calculation service is
// authoritative; when it is unreachable the fallback policy decides per type
// whether the local formula may stand in (surcharges/overtime) or whether
// the submission must be blocked (incapacidades, retención en la fuente).
type CalculoService interface {
	Valorar(ctx context.Context, salario decimal.Decimal, draft dto.NovedadDraft, fecha time.Time) (*Valoracion, error)
}

// CalculoRemoto is the slice of the HTTP client this service needs; the
// tests substitute it with a stub.
type CalculoRemoto interface {
	Calcular(ctx context.Context, payload infra.CalculoRequest) (*infra.CalculoResponse, error)
}

type calculoService struct {
	remoto CalculoRemoto
	cb     *infra.CircuitBreaker
}

func NewCalculoService(remoto CalculoRemoto, cb *infra.CircuitBreaker) CalculoService {
	return &calculoService{remoto: remoto, cb: cb}
}

func (s *calculoService) Valorar(ctx context.Context, salario decimal.Decimal, draft dto.NovedadDraft, fecha time.Time) (*Valoracion, error) {
	tipo := nomina.Tipo(draft.Tipo)
	d, err := nomina.Describir(tipo)
	if err != nil {
		return nil, err
	}

	// Manual-value types never touch the network.
	if !d.CalculoAutomatico {
		if draft.ValorManual == nil || !draft.ValorManual.IsPositive() {
			return nil, nomina.NuevaValidacion(map[string]string{"valor_manual": "requerido y mayor que cero"})
		}
		detalle := fmt.Sprintf("%s fecha=%s valor manual=%s", draft.Tipo, fecha.Format("2006-01-02"), draft.ValorManual.StringFixed(2))
		return &Valoracion{Valor: draft.ValorManual.Round(2), Detalle: detalle, Origen: model.OrigenManual}, nil
	}

	payload := infra.CalculoRequest{
		Tipo:        draft.Tipo,
		Subtipo:     draft.Subtipo,
		SalarioBase: salario,
		Dias:        draft.Dias,
		Horas:       draft.Horas,
		Fecha:       fecha.Format("2006-01-02"),
		ValorManual: draft.ValorManual,
	}

	var resp *infra.CalculoResponse
	remotoErr := s.cb.Execute(func() error {
		r, err := s.remoto.Calcular(ctx, payload)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if remotoErr == nil {
		return &Valoracion{Valor: resp.Valor.Round(2), Detalle: resp.DetalleCalculo, Origen: model.OrigenRemoto}, nil
	}

	if !nomina.ConRespaldoLocal(tipo) {
		// Compliance-sensitive types are never approximated client-side.
		return nil, fmt.Errorf("%w: %s (%v)", nomina.ErrCalculoNoDisponible, draft.Tipo, remotoErr)
	}

	log.Warn().
		Str("tipo", draft.Tipo).
		Err(remotoErr).
		Msg("calculo: servicio remoto no disponible, usando fórmula local")

	res, err := nomina.Calcular(entradaLocal(salario, draft, fecha))
	if err != nil {
		return nil, err
	}
	return &Valoracion{Valor: res.Valor, Detalle: res.Detalle, Origen: model.OrigenLocal}, nil
}

// entradaLocal maps a draft onto the local calculator input.
func entradaLocal(salario decimal.Decimal, draft dto.NovedadDraft, fecha time.Time) nomina.Entrada {
	e := nomina.Entrada{
		Tipo:    nomina.Tipo(draft.Tipo),
		Salario: salario,
		Fecha:   fecha,
	}
	if draft.Subtipo != nil {
		e.Subtipo = *draft.Subtipo
	}
	if draft.Dias != nil {
		e.Dias = *draft.Dias
	}
	if draft.Horas != nil {
		e.Horas = *draft.Horas
	}
	return e
}

// EsValidacion reports whether err is a structural validation failure (as
// opposed to an infrastructure problem).
func EsValidacion(err error) bool {
	var v *nomina.ValidacionError
	return errors.As(err, &v)
}
