package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Pending adjustment operations.
const (
	AjusteCrear    = "crear"
	AjusteEliminar = "eliminar"
)

// Pending adjustment states. An entry flips to aplicado only after its
// record mutation is durably committed, which is what makes the drain
// idempotent under partial failure.
const (
	AjustePendienteEstado = "pendiente"
	AjusteAplicadoEstado  = "aplicado"
)

// AjustePendiente captures a mutation intent against a closed period. It
// exists only while the owning period is cerrado and must be fully drained
// (applied or discarded) when the period closes again after a reopen.
type AjustePendiente struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Operacion  string    `gorm:"type:varchar(10);not null"`
	EmpleadoID uuid.UUID `gorm:"type:uuid;not null;index"`
	PeriodoID  uuid.UUID `gorm:"type:uuid;not null;index"`

	// Payload is the full novelty draft for crear operations.
	Payload json.RawMessage `gorm:"type:jsonb"`
	// NovedadRef is the record targeted by eliminar operations.
	NovedadRef *uuid.UUID `gorm:"type:uuid"`

	Estado     string `gorm:"type:varchar(10);not null;default:'pendiente'"`
	AplicadoEn *time.Time

	CreatedAt time.Time
}

func (AjustePendiente) TableName() string { return "ajustes_pendientes" }
