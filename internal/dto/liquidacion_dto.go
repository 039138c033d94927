package dto

import "github.com/shopspring/decimal"

// Totales is one gross/deductions/net triple, always recomputed as a fold
// over novelty records, never read back from a stored snapshot.
type Totales struct {
	Devengos    decimal.Decimal `json:"devengos"`
	Deducciones decimal.Decimal `json:"deducciones"`
	Neto        decimal.Decimal `json:"neto"`
}

// TotalesLiquidacion separates what is locked in from what will change on
// the next reconciliation. Confirmado folds registrada records only;
// Estimado applies the queued pending adjustments on top, for display.
type TotalesLiquidacion struct {
	Confirmado Totales `json:"confirmado"`
	Estimado   Totales `json:"estimado"`
}

// NovedadesEmpleadoResponse is the read-side view of one employee in one
// period: confirmed records plus in-flight pending adjustments.
type NovedadesEmpleadoResponse struct {
	Confirmadas []NovedadResponse         `json:"confirmadas"`
	Pendientes  []AjustePendienteResponse `json:"pendientes"`
}
