package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearPeriodoRequest struct {
	Nombre      string `json:"nombre"       validate:"required,min=3,max=100"`
	FechaInicio string `json:"fecha_inicio" validate:"required,datetime=2006-01-02"`
	FechaFin    string `json:"fecha_fin"    validate:"required,datetime=2006-01-02"`
}

type ReabrirPeriodoRequest struct {
	Motivo string `json:"motivo" validate:"required,min=5"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PeriodoResponse struct {
	ID               string           `json:"id"`
	Nombre           string           `json:"nombre"`
	FechaInicio      string           `json:"fecha_inicio"`
	FechaFin         string           `json:"fecha_fin"`
	Estado           string           `json:"estado"`
	ReabiertoPor     *string          `json:"reabierto_por"`
	ReabiertoEn      *string          `json:"reabierto_en"`
	MotivoReapertura *string          `json:"motivo_reapertura"`
	TotalDevengos    *decimal.Decimal `json:"total_devengos"`
	TotalDeducciones *decimal.Decimal `json:"total_deducciones"`
	TotalNeto        *decimal.Decimal `json:"total_neto"`
	CerradoEn        *string          `json:"cerrado_en"`
}

// CerrarPeriodoResponse reports the close. AjustesAplicados is only non-zero
// on a reabierto → cerrado close, where the pending queue drains.
type CerrarPeriodoResponse struct {
	Periodo          PeriodoResponse `json:"periodo"`
	AjustesAplicados int             `json:"ajustes_aplicados"`
}
