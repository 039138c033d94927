package repository

import (
	"context"
	"time"

	"nominapro/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NovedadRepository interface {
	Create(ctx context.Context, n *model.Novedad) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Novedad, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Update(ctx context.Context, n *model.Novedad) error
	// ListByEmpleadoPeriodo returns records in creation order so the audit
	// trail reads deterministically.
	ListByEmpleadoPeriodo(ctx context.Context, empleadoID, periodoID uuid.UUID) ([]model.Novedad, error)
	ListByPeriodo(ctx context.Context, periodoID uuid.UUID) ([]model.Novedad, error)
	// ListPendingRetries returns fallback-calculated records whose
	// next_retry_at has passed, oldest first, bounded by limit.
	ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.Novedad, error)
}

type novedadRepo struct{ db *gorm.DB }

func NewNovedadRepository(db *gorm.DB) NovedadRepository { return &novedadRepo{db: db} }

func (r *novedadRepo) Create(ctx context.Context, n *model.Novedad) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *novedadRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Novedad, error) {
	var n model.Novedad
	err := r.db.WithContext(ctx).First(&n, id).Error
	return &n, err
}

func (r *novedadRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Novedad{}, id).Error
}

func (r *novedadRepo) Update(ctx context.Context, n *model.Novedad) error {
	return r.db.WithContext(ctx).Save(n).Error
}

func (r *novedadRepo) ListByEmpleadoPeriodo(ctx context.Context, empleadoID, periodoID uuid.UUID) ([]model.Novedad, error) {
	var novedades []model.Novedad
	err := r.db.WithContext(ctx).
		Where("empleado_id = ? AND periodo_id = ?", empleadoID, periodoID).
		Order("created_at ASC").
		Find(&novedades).Error
	return novedades, err
}

func (r *novedadRepo) ListByPeriodo(ctx context.Context, periodoID uuid.UUID) ([]model.Novedad, error) {
	var novedades []model.Novedad
	err := r.db.WithContext(ctx).
		Where("periodo_id = ?", periodoID).
		Order("empleado_id ASC, created_at ASC").
		Find(&novedades).Error
	return novedades, err
}

func (r *novedadRepo) ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.Novedad, error) {
	var novedades []model.Novedad
	err := r.db.WithContext(ctx).
		Where("origen_calculo = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", model.OrigenLocal, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&novedades).Error
	return novedades, err
}
