package nomina

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Entrada carries everything a local calculation needs. Dias and Horas are
// only read when the type requires them.
type Entrada struct {
	Tipo    Tipo
	Subtipo string
	Salario decimal.Decimal
	Dias    int
	Horas   decimal.Decimal
	Fecha   time.Time
}

// Resultado is the monetary value plus its audit trace. Detalle encodes the
// inputs and the resolved parameters so an inspector can verify the formula
// without recomputation tooling; identical inputs always yield an identical
// Detalle.
type Resultado struct {
	Valor   decimal.Decimal
	Detalle string
}

const diasMes = 30

// Calcular computes the monetary value of a novelty from the date-resolved
// legal parameters. A zero value (e.g. incapacidad general with dias <= 3)
// is a valid business outcome, not an error.
func Calcular(e Entrada) (Resultado, error) {
	d, err := Describir(e.Tipo)
	if err != nil {
		return Resultado{}, err
	}
	if !AdmiteSubtipo(e.Tipo, e.Subtipo) {
		return Resultado{}, NuevaValidacion(map[string]string{
			"subtipo": fmt.Sprintf("subtipo %q no permitido para %s", e.Subtipo, e.Tipo),
		})
	}
	if !e.Salario.IsPositive() {
		return Resultado{}, fmt.Errorf("%w: %s", ErrSalarioInvalido, e.Salario)
	}
	if d.RequiereHoras && !e.Horas.IsPositive() {
		return Resultado{}, NuevaValidacion(map[string]string{"horas": "debe ser mayor que cero"})
	}
	if d.RequiereDias && e.Dias < 0 {
		return Resultado{}, NuevaValidacion(map[string]string{"dias": "no puede ser negativo"})
	}

	p, err := Resolver(e.Tipo, e.Subtipo, e.Fecha)
	if err != nil {
		return Resultado{}, err
	}

	switch {
	case d.RequiereHoras:
		return calcularPorHoras(e, p), nil
	case d.RequiereDias:
		return calcularPorDias(e, p), nil
	default:
		// Auto-calculated but neither hour- nor day-based (retención en la
		// fuente): only the remote service knows the schedule.
		return Resultado{}, ErrSinFormulaLocal
	}
}

func calcularPorHoras(e Entrada, p Parametros) Resultado {
	tarifaHora := e.Salario.Div(p.HorasMes)
	valor := tarifaHora.Mul(e.Horas).Mul(p.Factor).Round(2)
	detalle := fmt.Sprintf(
		"%s fecha=%s salario=%s horas_mes=%s tarifa_hora=%s horas=%s factor=%s valor=%s",
		claveRegla(e.Tipo, e.Subtipo),
		e.Fecha.Format("2006-01-02"),
		e.Salario.StringFixed(2),
		p.HorasMes.StringFixed(0),
		tarifaHora.StringFixed(2),
		e.Horas.StringFixed(2),
		p.Factor.StringFixed(2),
		valor.StringFixed(2),
	)
	return Resultado{Valor: valor, Detalle: detalle}
}

func calcularPorDias(e Entrada, p Parametros) Resultado {
	tarifaDiaria := e.Salario.Div(decimal.NewFromInt(diasMes))
	elegibles := e.Dias - p.DiasNoCubiertos
	if elegibles < 0 {
		elegibles = 0
	}
	valor := tarifaDiaria.Mul(decimal.NewFromInt(int64(elegibles))).Mul(p.Cobertura).Round(2)
	detalle := fmt.Sprintf(
		"%s fecha=%s salario=%s tarifa_diaria=%s dias=%d dias_no_cubiertos=%d dias_cubiertos=%d cobertura=%s valor=%s",
		claveRegla(e.Tipo, e.Subtipo),
		e.Fecha.Format("2006-01-02"),
		e.Salario.StringFixed(2),
		tarifaDiaria.StringFixed(2),
		e.Dias,
		p.DiasNoCubiertos,
		elegibles,
		p.Cobertura.StringFixed(3),
		valor.StringFixed(2),
	)
	return Resultado{Valor: valor, Detalle: detalle}
}

// ConRespaldoLocal reports whether tipo may be calculated locally when the
// remote calculation service is unreachable. Surcharge and overtime values
// degrade gracefully; incapacidades and retención carry compliance risk if
// approximated client-side, so they never fall back.
func ConRespaldoLocal(t Tipo) bool {
	switch t {
	case TipoHoraExtra, TipoRecargoNocturno, TipoRecargoDominical, TipoRecargoNocturnoDominical:
		return true
	default:
		return false
	}
}
