package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/infrastructure/config"
)

func TestResultsKey(t *testing.T) {
	id := uuid.MustParse("7b0c6d7e-6f51-4bb5-9e44-2f8d8f0d1a11")
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "runs/7b0c6d7e-6f51-4bb5-9e44-2f8d8f0d1a11/pipeline_results_20260304_050607.json", ResultsKey(id, at))
	assert.Equal(t, "runs/7b0c6d7e-6f51-4bb5-9e44-2f8d8f0d1a11/article.html", ArticleKey(id))
}

func TestLocalArchiveStorage(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalArchiveStorage(t.TempDir())
	require.NoError(t, err)

	ok, err := s.Exists(ctx, "runs/a/results.json")
	require.NoError(t, err)
	assert.False(t, ok)
	_, _, err = s.URL(ctx, "runs/a/results.json")
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, s.Put(ctx, "runs/a/results.json", []byte(`{"ok":true}`), "application/json"))
	url, expires, err := s.URL(ctx, "runs/a/results.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.True(t, expires.IsZero())

	data, err := os.ReadFile(strings.TrimPrefix(url, "file://"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
}

func TestLocalArchiveStorage_RejectsBadKeys(t *testing.T) {
	s, err := NewLocalArchiveStorage(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Put(context.Background(), "", nil, ""), ErrEmptyKey)
	assert.Error(t, s.Put(context.Background(), "../../etc/passwd", []byte("x"), ""))
}

func TestNewS3ArchiveStorage_Validation(t *testing.T) {
	_, err := NewS3ArchiveStorage(nil)
	assert.Error(t, err)

	_, err = NewS3ArchiveStorage(&config.StorageConfig{AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")

	_, err = NewS3ArchiveStorage(&config.StorageConfig{Bucket: "runs"})
	assert.ErrorContains(t, err, "credentials")
}

func TestS3ArchiveStorage_PresignedURL(t *testing.T) {
	s, err := NewS3ArchiveStorage(&config.StorageConfig{
		Bucket:       "seoblog-archive",
		AccessKey:    "key",
		SecretKey:    "secret",
		Endpoint:     "localhost:9000",
		UsePathStyle: true,
	}, WithLogger(zap.NewNop()))
	require.NoError(t, err)

	url, expires, err := s.URL(context.Background(), "runs/x/results.json")
	require.NoError(t, err)
	assert.Contains(t, url, "http://localhost:9000/seoblog-archive/runs/x/results.json")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expires, time.Minute)

	_, _, err = s.URL(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestNew_LocalWhenDisabled(t *testing.T) {
	s, err := New(context.Background(), &config.StorageConfig{LocalDir: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	_, ok := s.(*LocalArchiveStorage)
	assert.True(t, ok)
}
