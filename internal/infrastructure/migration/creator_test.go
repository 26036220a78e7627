package migration

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "add_run_tags", SanitizeName("Add run-tags!"))
	assert.Equal(t, "x1", SanitizeName("  x1  "))
	assert.Empty(t, SanitizeName("!!!"))
}

func TestCreateAndList(t *testing.T) {
	dir := t.TempDir()

	first, err := Create(dir, "create runs")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.FileExists(t, first.UpPath)
	assert.FileExists(t, first.DownPath)

	second, err := Create(dir, "Add Index")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, "000002_add_index.up.sql", filepath.Base(second.UpPath))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644))

	files, err := List(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "create_runs", files[0].Name)
	assert.Equal(t, "add_index", files[1].Name)

	_, err = Create(dir, "???")
	assert.Error(t, err)
}

func TestList_MissingDir(t *testing.T) {
	files, err := List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestList_RepositoryMigrationsArePaired(t *testing.T) {
	_, file, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")

	files, err := List(dir)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for i, f := range files {
		assert.Equal(t, i+1, f.Version, f.Name)
		assert.NotEmpty(t, f.UpPath, f.Name)
		assert.NotEmpty(t, f.DownPath, f.Name)
	}
}
