package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// NovedadDraft is the submission payload for one novelty. Which optional
// fields are mandatory depends on the declared tipo; that structural
// validation happens against the type registry, before any network call.
type NovedadDraft struct {
	EmpleadoID  string           `json:"empleado_id"  validate:"required,uuid"`
	PeriodoID   string           `json:"periodo_id"   validate:"required,uuid"`
	Tipo        string           `json:"tipo"         validate:"required"`
	Subtipo     *string          `json:"subtipo"`
	Dias        *int             `json:"dias"         validate:"omitempty,min=0"`
	Horas       *decimal.Decimal `json:"horas"`
	FechaInicio *string          `json:"fecha_inicio" validate:"omitempty,datetime=2006-01-02"`
	FechaFin    *string          `json:"fecha_fin"    validate:"omitempty,datetime=2006-01-02"`
	ValorManual *decimal.Decimal `json:"valor_manual"`
	Observacion *string          `json:"observacion"`
}

type LoteNovedadesRequest struct {
	Entradas []NovedadDraft `json:"entradas" validate:"required,min=1,max=100,dive"`
}

// PreviewRequest asks for a value suggestion while the user is still
// composing input. SesionID keys the debounce window; Final marks the
// authoritative pre-submit calculation which is never debounced.
type PreviewRequest struct {
	SesionID string       `json:"sesion_id" validate:"required,min=1"`
	Final    bool         `json:"final"`
	Draft    NovedadDraft `json:"draft"     validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type NovedadResponse struct {
	ID             string           `json:"id"`
	EmpleadoID     string           `json:"empleado_id"`
	PeriodoID      string           `json:"periodo_id"`
	Tipo           string           `json:"tipo"`
	Subtipo        *string          `json:"subtipo"`
	Categoria      string           `json:"categoria"`
	Valor          decimal.Decimal  `json:"valor"`
	Dias           *int             `json:"dias"`
	Horas          *decimal.Decimal `json:"horas"`
	FechaInicio    *string          `json:"fecha_inicio"`
	FechaFin       *string          `json:"fecha_fin"`
	Observacion    *string          `json:"observacion"`
	DetalleCalculo string           `json:"detalle_calculo"`
	Estado         string           `json:"estado"`
	OrigenCalculo  string           `json:"origen_calculo"`
}

type AjustePendienteResponse struct {
	ID         string           `json:"id"`
	Operacion  string           `json:"operacion"`
	EmpleadoID string           `json:"empleado_id"`
	PeriodoID  string           `json:"periodo_id"`
	// ValorEstimado is a display-only approximation of the effect the
	// adjustment will have once drained.
	ValorEstimado *decimal.Decimal `json:"valor_estimado"`
	Tipo          *string          `json:"tipo"`
	NovedadRef    *string          `json:"novedad_ref"`
	CreadoEn      string           `json:"creado_en"`
}

// RegistrarNovedadResponse reports the outcome of a submission. When
// EsPendiente is true the mutation was redirected to the pending adjustment
// queue (closed period) and will apply on the next reconciliation; Novedad
// and the refreshed totals are only present on the direct path.
type RegistrarNovedadResponse struct {
	EsPendiente bool                 `json:"es_pendiente"`
	Novedad     *NovedadResponse     `json:"novedad,omitempty"`
	AjusteID    *string              `json:"ajuste_id,omitempty"`
	Totales     *TotalesLiquidacion  `json:"totales,omitempty"`
}

type LoteEntradaResultado struct {
	Indice      int     `json:"indice"`
	EsPendiente bool    `json:"es_pendiente"`
	NovedadID   *string `json:"novedad_id,omitempty"`
	Error       *string `json:"error,omitempty"`
}

// LoteNovedadesResponse aggregates per-entry outcomes: a failed entry never
// aborts the rest of the batch.
type LoteNovedadesResponse struct {
	Exitosas   int                    `json:"exitosas"`
	Fallidas   int                    `json:"fallidas"`
	Resultados []LoteEntradaResultado `json:"resultados"`
}

type PreviewResponse struct {
	Valor          decimal.Decimal `json:"valor"`
	DetalleCalculo string          `json:"detalle_calculo"`
	Origen         string          `json:"origen"` // remoto | local
}
