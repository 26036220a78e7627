package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type queryStartKey struct{}

// DBTracing registers otelgorm plus a pair of callbacks that flag slow
// statements on the active span.
type DBTracing struct {
	slowThreshold time.Duration
	dbName        string
	logger        *zap.Logger
}

// NewDBTracing returns a plugin for the given database system name.
func NewDBTracing(dbName string, slowThreshold time.Duration, logger *zap.Logger) *DBTracing {
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracing{slowThreshold: slowThreshold, dbName: dbName, logger: logger}
}

// Register installs the plugin on db. Query variables are never attached
// to spans.
func (p *DBTracing) Register(db *gorm.DB) error {
	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(p.dbName),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}

	cb := db.Callback()
	hooks := []struct {
		op     string
		before func(string) error
		after  func(string) error
	}{
		{"create", func(n string) error { return cb.Create().Before("gorm:create").Register(n, p.before) }, func(n string) error { return cb.Create().After("gorm:create").Register(n, p.after) }},
		{"query", func(n string) error { return cb.Query().Before("gorm:query").Register(n, p.before) }, func(n string) error { return cb.Query().After("gorm:query").Register(n, p.after) }},
		{"update", func(n string) error { return cb.Update().Before("gorm:update").Register(n, p.before) }, func(n string) error { return cb.Update().After("gorm:update").Register(n, p.after) }},
		{"delete", func(n string) error { return cb.Delete().Before("gorm:delete").Register(n, p.before) }, func(n string) error { return cb.Delete().After("gorm:delete").Register(n, p.after) }},
		{"row", func(n string) error { return cb.Row().Before("gorm:row").Register(n, p.before) }, func(n string) error { return cb.Row().After("gorm:row").Register(n, p.after) }},
		{"raw", func(n string) error { return cb.Raw().Before("gorm:raw").Register(n, p.before) }, func(n string) error { return cb.Raw().After("gorm:raw").Register(n, p.after) }},
	}
	for _, h := range hooks {
		if err := h.before("seoblog_timing:before_" + h.op); err != nil {
			return err
		}
		if err := h.after("seoblog_timing:after_" + h.op); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.String("db_system", p.dbName),
		zap.Duration("slow_query_threshold", p.slowThreshold),
	)
	return nil
}

func (p *DBTracing) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBTracing) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
	if started, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := time.Since(started); elapsed > p.slowThreshold {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
