package nomina

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Sentinel errors for the calculation core. Services and handlers branch on
// these with errors.Is; user-facing messages stay in Spanish like the rest
// of the API surface.
var (
	// ErrTipoDesconocido — the requested novelty type is not in the catalog.
	ErrTipoDesconocido = errors.New("tipo de novedad desconocido")

	// ErrSinReglaAplicable — no rule interval covers the effective date.
	// Every rule table ends in an unbounded interval, so hitting this means
	// the table itself is broken. Fatal, never retried.
	ErrSinReglaAplicable = errors.New("sin regla aplicable para la fecha")

	// ErrSalarioInvalido — base salary must be strictly positive.
	ErrSalarioInvalido = errors.New("salario base inválido")

	// ErrSinFormulaLocal — the type has no client-side formula; only the
	// remote calculation service may compute it.
	ErrSinFormulaLocal = errors.New("tipo sin fórmula de cálculo local")

	// ErrCalculoNoDisponible — the remote calculation service failed and the
	// type does not admit a local fallback. Submission is blocked; the caller
	// may retry.
	ErrCalculoNoDisponible = errors.New("servicio de cálculo no disponible")
)

// ValidacionError aggregates per-field structural problems in a novelty
// draft (missing hours for an hour-based type, empty date range, etc.).
// It is rejected before any network call and never retried automatically.
type ValidacionError struct {
	Campos map[string]string
}

func (e *ValidacionError) Error() string {
	keys := make([]string, 0, len(e.Campos))
	for k := range e.Campos {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Campos[k])
	}
	return "validación fallida — " + strings.Join(parts, "; ")
}

// NuevaValidacion builds a ValidacionError from field/message pairs.
func NuevaValidacion(campos map[string]string) *ValidacionError {
	return &ValidacionError{Campos: campos}
}

func errSinRegla(clave string, fecha time.Time) error {
	return fmt.Errorf("%w: %s en %s", ErrSinReglaAplicable, clave, fecha.Format("2006-01-02"))
}
