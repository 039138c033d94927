package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Period lifecycle states. The only reverse transition allowed is the
// cerrado → reabierto → cerrado correction loop.
const (
	PeriodoBorrador  = "borrador"
	PeriodoCerrado   = "cerrado"
	PeriodoReabierto = "reabierto"
)

// PeriodoNomina is a payroll cycle with its own open/closed lifecycle.
// Totals are a closing snapshot written on cerrar (the authoritative totals
// are always recomputed from the novelty records, never read back from here
// for business decisions).
type PeriodoNomina struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string    `gorm:"not null"`
	FechaInicio time.Time `gorm:"type:date;not null"`
	FechaFin    time.Time `gorm:"type:date;not null"`
	Estado      string    `gorm:"type:varchar(20);not null;default:'borrador'"`

	// Reopen audit trail — who, when and why the correction window opened.
	ReabiertoPor     *uuid.UUID `gorm:"type:uuid"`
	ReabiertoEn      *time.Time
	MotivoReapertura *string

	// Closing snapshot across all employees.
	TotalDevengos    *decimal.Decimal `gorm:"type:decimal(14,2)"`
	TotalDeducciones *decimal.Decimal `gorm:"type:decimal(14,2)"`
	TotalNeto        *decimal.Decimal `gorm:"type:decimal(14,2)"`
	CerradoEn        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PeriodoNomina) TableName() string { return "periodos_nomina" }

// PuedeMutarDirecto reports whether novelty mutations may be applied
// directly. Anything attempted against a closed period is redirected to the
// pending adjustment queue instead.
func (p *PeriodoNomina) PuedeMutarDirecto() bool {
	return p.Estado == PeriodoBorrador || p.Estado == PeriodoReabierto
}

// transicionesPeriodo encodes the legal lifecycle moves.
var transicionesPeriodo = map[string][]string{
	PeriodoBorrador:  {PeriodoCerrado},
	PeriodoCerrado:   {PeriodoReabierto},
	PeriodoReabierto: {PeriodoCerrado},
}

// TransicionValida reports whether the period may move to destino.
func (p *PeriodoNomina) TransicionValida(destino string) bool {
	for _, d := range transicionesPeriodo[p.Estado] {
		if d == destino {
			return true
		}
	}
	return false
}
