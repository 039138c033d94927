package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Novedad status. A record enqueued against a closed period is not stored
// here at all — it lives in AjustePendiente until the next reconciliation,
// so a persisted record is always registrada.
const NovedadRegistrada = "registrada"

// Calculation provenance for a novelty value.
const (
	OrigenRemoto = "remoto" // authoritative calculation service
	OrigenLocal  = "local"  // degraded-mode local formula, pending upgrade
	OrigenManual = "manual" // value captured by the user (bonos, préstamos)
)

// Novedad is a discrete payroll adjustment for one employee in one period.
// Valor is always non-negative; the sign of its effect comes from the type's
// category (devengo vs. deducción), never from the stored number.
type Novedad struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpleadoID uuid.UUID `gorm:"type:uuid;not null;index:idx_novedad_emp_periodo"`
	PeriodoID  uuid.UUID `gorm:"type:uuid;not null;index:idx_novedad_emp_periodo"`

	Tipo    string  `gorm:"type:varchar(40);not null"`
	Subtipo *string `gorm:"type:varchar(40)"`

	Valor decimal.Decimal  `gorm:"type:decimal(14,2);not null"`
	Dias  *int
	Horas *decimal.Decimal `gorm:"type:decimal(8,2)"`

	FechaInicio *time.Time `gorm:"type:date"`
	FechaFin    *time.Time `gorm:"type:date"`

	Observacion    *string
	DetalleCalculo string `gorm:"not null"`
	Estado         string `gorm:"type:varchar(20);not null;default:'registrada'"`

	// OrigenCalculo + retry bookkeeping: values produced by the local
	// fallback are re-attempted against the calculation service in the
	// background until they become authoritative.
	OrigenCalculo string     `gorm:"type:varchar(10);not null;default:'remoto'"`
	RetryCount    int        `gorm:"not null;default:0"`
	NextRetryAt   *time.Time `gorm:"index"`
	LastError     *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Novedad) TableName() string { return "novedades" }
