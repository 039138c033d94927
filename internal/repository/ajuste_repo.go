package repository

import (
	"context"
	"time"

	"nominapro/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AjusteRepository interface {
	Create(ctx context.Context, a *model.AjustePendiente) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.AjustePendiente, error)
	// ListPendientes returns un-applied entries for a period grouped by
	// employee and ordered by enqueue time — the drain contract is FIFO per
	// employee.
	ListPendientes(ctx context.Context, periodoID uuid.UUID) ([]model.AjustePendiente, error)
	ListByEmpleadoPeriodo(ctx context.Context, empleadoID, periodoID uuid.UUID) ([]model.AjustePendiente, error)
	MarcarAplicado(ctx context.Context, id uuid.UUID) error
	Descartar(ctx context.Context, id uuid.UUID) error
	// PurgeAplicados removes applied markers once a drain completed fully.
	PurgeAplicados(ctx context.Context, periodoID uuid.UUID) error
}

type ajusteRepo struct{ db *gorm.DB }

func NewAjusteRepository(db *gorm.DB) AjusteRepository { return &ajusteRepo{db: db} }

func (r *ajusteRepo) Create(ctx context.Context, a *model.AjustePendiente) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ajusteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.AjustePendiente, error) {
	var a model.AjustePendiente
	err := r.db.WithContext(ctx).First(&a, id).Error
	return &a, err
}

func (r *ajusteRepo) ListPendientes(ctx context.Context, periodoID uuid.UUID) ([]model.AjustePendiente, error) {
	var ajustes []model.AjustePendiente
	err := r.db.WithContext(ctx).
		Where("periodo_id = ? AND estado = ?", periodoID, model.AjustePendienteEstado).
		Order("empleado_id ASC, created_at ASC").
		Find(&ajustes).Error
	return ajustes, err
}

func (r *ajusteRepo) ListByEmpleadoPeriodo(ctx context.Context, empleadoID, periodoID uuid.UUID) ([]model.AjustePendiente, error) {
	var ajustes []model.AjustePendiente
	err := r.db.WithContext(ctx).
		Where("empleado_id = ? AND periodo_id = ? AND estado = ?", empleadoID, periodoID, model.AjustePendienteEstado).
		Order("created_at ASC").
		Find(&ajustes).Error
	return ajustes, err
}

func (r *ajusteRepo) MarcarAplicado(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.AjustePendiente{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"estado": model.AjusteAplicadoEstado, "aplicado_en": now}).Error
}

func (r *ajusteRepo) Descartar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND estado = ?", id, model.AjustePendienteEstado).
		Delete(&model.AjustePendiente{}).Error
}

func (r *ajusteRepo) PurgeAplicados(ctx context.Context, periodoID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("periodo_id = ? AND estado = ?", periodoID, model.AjusteAplicadoEstado).
		Delete(&model.AjustePendiente{}).Error
}
