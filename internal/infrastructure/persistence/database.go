package persistence

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/logger"
	"github.com/seoblog/backend/internal/infrastructure/persistence/models"
)

// Database owns the gorm connection pool.
type Database struct {
	DB     *gorm.DB
	driver string
}

// NewDatabase connects to postgres or sqlite depending on cfg.Driver.
func NewDatabase(cfg *config.DatabaseConfig, log *zap.Logger, level gormlogger.LogLevel) (*Database, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.NewGormLogger(log, level, 0),
		SkipDefaultTransaction: true,
		PrepareStmt:            cfg.Driver != "sqlite",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// sqlite serialises writers; one connection also keeps :memory: alive.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Database{DB: db, driver: cfg.Driver}, nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "postgres":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "file::memory:?cache=shared"
		}
		return sqlite.Open(path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Driver returns the configured driver name.
func (d *Database) Driver() string {
	if d.driver == "" {
		return "postgres"
	}
	return d.driver
}

// AutoMigrate creates the schema from the models. Postgres deployments use
// the SQL migrations instead; this is for sqlite and tests.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(models.All()...)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// ConnectionStats is the subset of sql.DBStats reported on /health.
type ConnectionStats struct {
	OpenConnections int           `json:"open_connections"`
	InUse           int           `json:"in_use"`
	Idle            int           `json:"idle"`
	WaitCount       int64         `json:"wait_count"`
	WaitDuration    time.Duration `json:"wait_duration"`
}

func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	s := sqlDB.Stats()
	return ConnectionStats{
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		WaitCount:       s.WaitCount,
		WaitDuration:    s.WaitDuration,
	}, nil
}

// Transaction runs fn inside a database transaction.
func (d *Database) Transaction(fn func(tx *gorm.DB) error) error {
	return d.DB.Transaction(fn)
}
