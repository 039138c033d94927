package repository

import (
	"context"

	"nominapro/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PeriodoRepository interface {
	Create(ctx context.Context, p *model.PeriodoNomina) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PeriodoNomina, error)
	List(ctx context.Context) ([]model.PeriodoNomina, error)
	Update(ctx context.Context, p *model.PeriodoNomina) error
}

type periodoRepo struct{ db *gorm.DB }

func NewPeriodoRepository(db *gorm.DB) PeriodoRepository { return &periodoRepo{db: db} }

func (r *periodoRepo) Create(ctx context.Context, p *model.PeriodoNomina) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *periodoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PeriodoNomina, error) {
	var p model.PeriodoNomina
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *periodoRepo) List(ctx context.Context) ([]model.PeriodoNomina, error) {
	var periodos []model.PeriodoNomina
	err := r.db.WithContext(ctx).Order("fecha_inicio DESC").Find(&periodos).Error
	return periodos, err
}

func (r *periodoRepo) Update(ctx context.Context, p *model.PeriodoNomina) error {
	return r.db.WithContext(ctx).Save(p).Error
}
