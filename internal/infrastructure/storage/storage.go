// Package storage archives pipeline result documents in object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/infrastructure/config"
)

// ErrEmptyKey is returned for an empty object key.
var ErrEmptyKey = errors.New("storage key is required")

// ArchiveStorage keeps run result documents and hands out download URLs.
type ArchiveStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// URL returns a download URL and when it stops working (zero for never).
	URL(ctx context.Context, key string) (string, time.Time, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// ResultsKey is where the results document of a run is archived.
func ResultsKey(runID uuid.UUID, finishedAt time.Time) string {
	return fmt.Sprintf("runs/%s/pipeline_results_%s.json", runID, finishedAt.UTC().Format("20060102_150405"))
}

// ArticleKey is where the rendered HTML of a run's article is archived.
func ArticleKey(runID uuid.UUID) string {
	return fmt.Sprintf("runs/%s/article.html", runID)
}

// New returns S3 storage when it is enabled, otherwise local storage under
// cfg.LocalDir.
func New(ctx context.Context, cfg *config.StorageConfig, log *zap.Logger) (ArchiveStorage, error) {
	if !cfg.Enabled {
		return NewLocalArchiveStorage(cfg.LocalDir)
	}
	s, err := NewS3ArchiveStorage(cfg, WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
