package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"github.com/seoblog/backend/internal/infrastructure/config"
)

func TestNewDatabase_SQLite(t *testing.T) {
	db := newSQLiteDB(t)

	assert.Equal(t, "sqlite", db.Driver())
	require.NoError(t, db.Ping())

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 1)

	for _, table := range []string{"pipeline_runs", "stage_results", "articles", "schedules"} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"}, nil, gormlogger.Silent)
	assert.Error(t, err)
}

func TestValidateSort(t *testing.T) {
	assert.Equal(t, "ASC", ValidateSortOrder(" asc "))
	assert.Equal(t, "DESC", ValidateSortOrder("sideways"))
	assert.Equal(t, "status", ValidateSortField("status", RunSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("password; DROP", RunSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("", RunSortFields, "created_at"))
}
