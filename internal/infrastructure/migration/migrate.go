package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator applies the SQL files under a migrations directory to postgres.
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

func New(db *sql.DB, migrationsPath string, log *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{m: m, log: log.Named("migrate")}, nil
}

// Up applies every pending migration. Being up to date is not an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.log.Info("Schema is up to date")
			return nil
		}
		return fmt.Errorf("migration up failed: %w", err)
	}
	return m.logVersion("Migrations applied")
}

func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.log.Info("Nothing to roll back")
			return nil
		}
		return fmt.Errorf("migration down failed: %w", err)
	}
	m.log.Info("All migrations rolled back")
	return nil
}

// Steps moves n migrations forward, or back when n is negative.
func (m *Migrator) Steps(n int) error {
	if err := m.m.Steps(n); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration steps failed: %w", err)
	}
	return m.logVersion("Migration steps applied")
}

// Version returns 0 when nothing has been applied yet.
func (m *Migrator) Version() (uint, bool, error) {
	v, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return v, dirty, nil
}

// Force records version without running anything; used to clear a dirty state.
func (m *Migrator) Force(version int) error {
	m.log.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (m *Migrator) logVersion(msg string) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.log.Info(msg, zap.Uint("version", v), zap.Bool("dirty", dirty))
	return nil
}
