package postgres

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fastygo/planner/internal/config"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the task and user schema. Migrations ship inside the
// binary; MIGRATIONS_PATH points at a directory on disk instead.
func RunMigrations(cfg *config.Config, logger *zap.Logger) error {
	if cfg == nil || !cfg.Migrations.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("ping postgres for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, source, err := newMigrator(cfg, driver)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("database migrations applied",
		zap.String("source", source),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

func newMigrator(cfg *config.Config, driver database.Driver) (*migrate.Migrate, string, error) {
	if cfg.Migrations.Path != "" {
		sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(cfg.Migrations.Path))
		m, err := migrate.NewWithDatabaseInstance(sourceURL, cfg.Database.Name, driver)
		return m, sourceURL, err
	}
	src, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		return nil, "", err
	}
	m, err := migrate.NewWithInstance("iofs", src, cfg.Database.Name, driver)
	return m, "embedded", err
}
