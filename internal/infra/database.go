package infra

import (
	"fmt"

	"nominapro/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate,
// then applies the idempotent SQL patches GORM cannot express (partial
// indexes mainly).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// The drain path distinguishes a replayed adjustment by its primary
		// key collision, so driver errors must map to gorm sentinels.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Empleado{},
		&model.PeriodoNomina{},
		&model.Novedad{},
		&model.AjustePendiente{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches creates the partial indexes the drain and retry paths
// query on. Every statement is IF NOT EXISTS, safe to re-run.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"partial index for un-applied adjustments per period",
			`CREATE INDEX IF NOT EXISTS idx_ajustes_pendientes_drain
			 ON ajustes_pendientes (periodo_id, empleado_id, created_at)
			 WHERE estado = 'pendiente'`},
		{"partial index for fallback-calculated novelties awaiting retry",
			`CREATE INDEX IF NOT EXISTS idx_novedades_retry
			 ON novedades (next_retry_at)
			 WHERE origen_calculo = 'local' AND next_retry_at IS NOT NULL`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("%s: %w", p.descr, err)
		}
	}
	return nil
}
