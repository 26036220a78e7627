package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/infrastructure/logger"
	"github.com/seoblog/backend/internal/infrastructure/migration"
)

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "migrations", "Path to the migrations directory")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	log, err := logger.New(logger.Options{Level: logLevel, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		log.Fatal("Invalid migrations path", zap.Error(err))
	}

	if handled := runOffline(log, absPath, args); handled {
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Database.Driver == "sqlite" {
		log.Fatal("SQL migrations target postgres; sqlite schemas are created by the server on startup")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, absPath, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	if err := runOnline(m, log, args); err != nil {
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

// runOffline handles the commands that only touch the filesystem.
func runOffline(log *zap.Logger, dir string, args []string) bool {
	switch args[0] {
	case "create":
		if len(args) < 2 {
			log.Fatal("usage: migrate create <name>")
		}
		f, err := migration.Create(dir, args[1])
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created", zap.Int("version", f.Version), zap.String("up", f.UpPath), zap.String("down", f.DownPath))
		return true
	case "list":
		files, err := migration.List(dir)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		for _, f := range files {
			fmt.Printf("%06d  %s\n", f.Version, f.Name)
		}
		return true
	}
	return false
}

func runOnline(m *migration.Migrator, log *zap.Logger, args []string) error {
	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate steps <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[1])
		}
		return m.Steps(n)
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate force <version>")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		return m.Force(v)
	}
	usage()
	return fmt.Errorf("unknown command %q", args[0])
}

func usage() {
	fmt.Fprint(os.Stderr, `seoblog schema migrations

Usage:
  migrate [flags] <command> [args]

Commands:
  up                 apply all pending migrations
  down               roll back every migration
  steps <n>          apply n migrations (negative rolls back)
  version            print the applied version
  force <version>    set the version without running SQL
  create <name>      write a new numbered up/down pair
  list               list migration files

Flags:
  -path string       migrations directory (default "migrations")
  -log-level string  debug, info, warn or error (default "info")

Database settings come from SEOBLOG_DATABASE_* environment variables.
`)
}
