package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalArchiveStorage writes archives below a directory and serves file://
// URLs. It backs single-node setups and the generate CLI.
type LocalArchiveStorage struct {
	root string
}

func NewLocalArchiveStorage(dir string) (*LocalArchiveStorage, error) {
	if dir == "" {
		dir = "results"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive dir: %w", err)
	}
	return &LocalArchiveStorage{root: abs}, nil
}

func (l *LocalArchiveStorage) Put(_ context.Context, key string, data []byte, _ string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (l *LocalArchiveStorage) URL(ctx context.Context, key string) (string, time.Time, error) {
	ok, err := l.Exists(ctx, key)
	if err != nil {
		return "", time.Time{}, err
	}
	if !ok {
		return "", time.Time{}, os.ErrNotExist
	}
	path, _ := l.path(key)
	return "file://" + filepath.ToSlash(path), time.Time{}, nil
}

func (l *LocalArchiveStorage) Exists(_ context.Context, key string) (bool, error) {
	path, err := l.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// path resolves key below root and refuses keys that escape it.
func (l *LocalArchiveStorage) path(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	p := filepath.Join(l.root, filepath.FromSlash(key))
	if p != l.root && !strings.HasPrefix(p, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("storage key %q escapes archive root", key)
	}
	return p, nil
}
