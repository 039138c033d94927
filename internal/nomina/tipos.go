package nomina

import "fmt"

// Categoria determines the sign of a novelty's effect on the liquidation.
// The stored value is always non-negative; devengos increase gross pay,
// deducciones increase deductions.
type Categoria string

const (
	CategoriaDevengo   Categoria = "devengo"
	CategoriaDeduccion Categoria = "deduccion"
)

// Tipo identifies a novelty type in the catalog.
type Tipo string

const (
	TipoHoraExtra                Tipo = "hora_extra"
	TipoRecargoNocturno          Tipo = "recargo_nocturno"
	TipoRecargoDominical         Tipo = "recargo_dominical"
	TipoRecargoNocturnoDominical Tipo = "recargo_nocturno_dominical"
	TipoIncapacidad              Tipo = "incapacidad"
	TipoLicenciaRemunerada       Tipo = "licencia_remunerada"
	TipoLicenciaNoRemunerada     Tipo = "licencia_no_remunerada"
	TipoBonificacion             Tipo = "bonificacion"
	TipoPrestamo                 Tipo = "prestamo"
	TipoRetencionFuente          Tipo = "retencion_fuente"
)

// Subtipos
const (
	SubtipoDiurna   = "diurna"
	SubtipoNocturna = "nocturna"
	SubtipoGeneral  = "general"  // incapacidad por enfermedad común
	SubtipoLaboral  = "laboral"  // incapacidad de origen laboral
)

// Descriptor states the structural requirements of a novelty type: its
// category, whether days/hours are mandatory inputs, whether the value is
// auto-calculated (vs. captured manually), and the permitted subtypes.
type Descriptor struct {
	Categoria         Categoria
	RequiereDias      bool
	RequiereHoras     bool
	CalculoAutomatico bool
	Subtipos          []string
}

// catalogo is the read-only novelty type registry. Order of Subtipos is the
// presentation order and is part of the contract.
var catalogo = map[Tipo]Descriptor{
	TipoHoraExtra: {
		Categoria:         CategoriaDevengo,
		RequiereHoras:     true,
		CalculoAutomatico: true,
		Subtipos:          []string{SubtipoDiurna, SubtipoNocturna},
	},
	TipoRecargoNocturno: {
		Categoria:         CategoriaDevengo,
		RequiereHoras:     true,
		CalculoAutomatico: true,
	},
	TipoRecargoDominical: {
		Categoria:         CategoriaDevengo,
		RequiereHoras:     true,
		CalculoAutomatico: true,
	},
	TipoRecargoNocturnoDominical: {
		Categoria:         CategoriaDevengo,
		RequiereHoras:     true,
		CalculoAutomatico: true,
	},
	TipoIncapacidad: {
		Categoria:         CategoriaDevengo,
		RequiereDias:      true,
		CalculoAutomatico: true,
		Subtipos:          []string{SubtipoGeneral, SubtipoLaboral},
	},
	TipoLicenciaRemunerada: {
		Categoria:         CategoriaDevengo,
		RequiereDias:      true,
		CalculoAutomatico: true,
	},
	TipoLicenciaNoRemunerada: {
		Categoria:         CategoriaDeduccion,
		RequiereDias:      true,
		CalculoAutomatico: true,
	},
	TipoBonificacion: {
		Categoria: CategoriaDevengo,
	},
	TipoPrestamo: {
		Categoria: CategoriaDeduccion,
	},
	TipoRetencionFuente: {
		Categoria:         CategoriaDeduccion,
		CalculoAutomatico: true,
	},
}

// Describir returns the descriptor for a novelty type.
func Describir(t Tipo) (Descriptor, error) {
	d, ok := catalogo[t]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrTipoDesconocido, t)
	}
	return d, nil
}

// AdmiteSubtipo reports whether sub is a permitted subtype of t. Types
// without subtypes only admit the empty string.
func AdmiteSubtipo(t Tipo, sub string) bool {
	d, ok := catalogo[t]
	if !ok {
		return false
	}
	if sub == "" {
		return len(d.Subtipos) == 0
	}
	for _, s := range d.Subtipos {
		if s == sub {
			return true
		}
	}
	return false
}

// Tipos returns every registered type. Intended for catalog endpoints.
func Tipos() []Tipo {
	out := make([]Tipo, 0, len(catalogo))
	for t := range catalogo {
		out = append(out, t)
	}
	return out
}
