package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Statements AutoMigrate cannot express. Kept in sync with the goose
// migrations so SQLite enforces the same invariants as PostgreSQL.
var sqliteStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollments_active_student_class
		ON enrollments (student_id, class_id) WHERE status <> 'CANCELLED'`,
	`UPDATE payments SET status = 'SUCCEEDED' WHERE status = 'COMPLETED'`,
}

// Migrate applies the goose migrations on PostgreSQL and AutoMigrate plus
// the extra index statements on SQLite.
func Migrate(ctx context.Context, db *gorm.DB, log *zap.Logger, models ...any) error {
	if IsPostgres(db) {
		return migratePostgres(ctx, db, log)
	}

	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range sqliteStatements {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite statement: %w", err)
		}
	}
	log.Info("sqlite schema migrated", zap.Int("models", len(models)))
	return nil
}

func migratePostgres(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	log.Info("applying database migrations")
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("get version: %w", err)
	}
	log.Info("migrations applied", zap.Int64("version", version))
	return nil
}
