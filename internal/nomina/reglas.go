package nomina

import (
	"time"

	"github.com/shopspring/decimal"
)

// Parametros are the date-resolved legal parameters a calculation uses.
// Not every field applies to every type: surcharges use Factor and HorasMes,
// day-based types use Cobertura and DiasNoCubiertos.
type Parametros struct {
	// Factor multiplies the hourly rate for hour-based types.
	Factor decimal.Decimal
	// Cobertura is the fraction of the daily rate covered for day-based types.
	Cobertura decimal.Decimal
	// DiasNoCubiertos are leading days borne entirely by the employer
	// (value contribution 0). Eligible days = dias - DiasNoCubiertos.
	DiasNoCubiertos int
	// HorasMes is the legal monthly hour divisor in force at the date.
	// The statutory work week shortens over time, so this is versioned too.
	HorasMes decimal.Decimal
}

// intervalo is a half-open validity window [Desde, Hasta). A zero Desde
// means "since always"; a zero Hasta means open-ended. Every table's last
// interval MUST be open-ended — Resolver failing on a covered table is a
// configuration defect, not a runtime condition.
type intervalo struct {
	Desde  time.Time
	Hasta  time.Time
	Params Parametros
}

func fecha(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func factor(f string) Parametros {
	return Parametros{Factor: decimal.RequireFromString(f)}
}

// claveHorasMes is the internal table holding the legal monthly divisor.
const claveHorasMes = "horas_mes"

// reglas holds every rule table keyed by tipo or tipo/subtipo.
var reglas = map[string][]intervalo{
	// Recargo nocturno: constant 35% on top of the hourly rate.
	string(TipoRecargoNocturno): {
		{Params: factor("0.35")},
	},

	// Recargo dominical/festivo: versioned by the 2025 labor reform schedule.
	string(TipoRecargoDominical): {
		{Hasta: fecha(2025, time.July, 1), Params: factor("0.75")},
		{Desde: fecha(2025, time.July, 1), Hasta: fecha(2026, time.July, 1), Params: factor("0.80")},
		{Desde: fecha(2026, time.July, 1), Hasta: fecha(2027, time.July, 1), Params: factor("0.90")},
		{Desde: fecha(2027, time.July, 1), Params: factor("1.00")},
	},

	// Recargo nocturno dominical: constant 115%.
	string(TipoRecargoNocturnoDominical): {
		{Params: factor("1.15")},
	},

	string(TipoHoraExtra) + "/" + SubtipoDiurna: {
		{Params: factor("1.25")},
	},
	string(TipoHoraExtra) + "/" + SubtipoNocturna: {
		{Params: factor("1.75")},
	},

	// Incapacidad por enfermedad común: days 1-3 on the employer (value 0),
	// from day 4 the EPS covers 66.7% of the daily rate.
	string(TipoIncapacidad) + "/" + SubtipoGeneral: {
		{Params: Parametros{Cobertura: decimal.RequireFromString("0.667"), DiasNoCubiertos: 3}},
	},

	// Incapacidad de origen laboral: 100% of the daily rate from day 1.
	string(TipoIncapacidad) + "/" + SubtipoLaboral: {
		{Params: Parametros{Cobertura: decimal.RequireFromString("1.00")}},
	},

	string(TipoLicenciaRemunerada): {
		{Params: Parametros{Cobertura: decimal.RequireFromString("1.00")}},
	},
	string(TipoLicenciaNoRemunerada): {
		{Params: Parametros{Cobertura: decimal.RequireFromString("1.00")}},
	},

	// Legal monthly hour divisor, following the staged work-week reduction.
	claveHorasMes: {
		{Hasta: fecha(2025, time.July, 1), Params: Parametros{HorasMes: decimal.NewFromInt(230)}},
		{Desde: fecha(2025, time.July, 1), Hasta: fecha(2026, time.July, 1), Params: Parametros{HorasMes: decimal.NewFromInt(220)}},
		{Desde: fecha(2026, time.July, 1), Params: Parametros{HorasMes: decimal.NewFromInt(210)}},
	},
}

func claveRegla(t Tipo, subtipo string) string {
	if subtipo == "" {
		return string(t)
	}
	return string(t) + "/" + subtipo
}

// Resolver returns the parameters in force for tipo/subtipo at fecha.
// The interval containing fecha is chosen with the start inclusive and the
// end exclusive. HorasMes is always populated from its own table.
func Resolver(t Tipo, subtipo string, efectiva time.Time) (Parametros, error) {
	d, err := Describir(t)
	if err != nil {
		return Parametros{}, err
	}
	if !d.CalculoAutomatico {
		return Parametros{}, ErrSinFormulaLocal
	}

	clave := claveRegla(t, subtipo)
	tabla, ok := reglas[clave]
	if !ok {
		return Parametros{}, ErrSinFormulaLocal
	}

	p, err := buscarIntervalo(tabla, clave, efectiva)
	if err != nil {
		return Parametros{}, err
	}

	horas, err := buscarIntervalo(reglas[claveHorasMes], claveHorasMes, efectiva)
	if err != nil {
		return Parametros{}, err
	}
	p.HorasMes = horas.HorasMes
	return p, nil
}

func buscarIntervalo(tabla []intervalo, clave string, f time.Time) (Parametros, error) {
	for _, iv := range tabla {
		if !iv.Desde.IsZero() && f.Before(iv.Desde) {
			continue
		}
		if !iv.Hasta.IsZero() && !f.Before(iv.Hasta) {
			continue
		}
		return iv.Params, nil
	}
	return Parametros{}, errSinRegla(clave, f)
}
