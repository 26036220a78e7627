package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/infrastructure/config"
)

func newSQLiteDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, nil, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newBrief(product string) pipeline.Brief {
	return pipeline.Brief{
		ProductName:    product,
		Niche:          "home fitness",
		TargetAudience: "busy parents",
		TargetKeywords: []string{"adjustable dumbbells"},
	}
}

func newRun(t *testing.T, product string) *pipeline.Run {
	t.Helper()
	run, err := pipeline.NewRun(newBrief(product))
	require.NoError(t, err)
	return run
}
