package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Empleado is the payroll subject. SalarioBase feeds every automatic
// novelty calculation; an employee without a positive salary blocks the
// first close of any period that includes them.
type Empleado struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Documento   string          `gorm:"uniqueIndex;not null"`
	Nombre      string          `gorm:"not null"`
	Email       *string
	SalarioBase decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Activo      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
