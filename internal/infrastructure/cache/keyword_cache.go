package cache

import (
	"context"
	"strings"
	"time"

	"github.com/seoblog/backend/internal/domain/keyword"
)

// KeywordCache memoises keyword research per seed keyword and source.
type KeywordCache interface {
	// Get reports ok=false on a miss or an expired entry.
	Get(ctx context.Context, key string) (metrics []keyword.Metrics, ok bool, err error)
	Set(ctx context.Context, key string, metrics []keyword.Metrics, ttl time.Duration) error
	Close() error
}

// KeywordKey builds the cache key of a seed keyword researched via source.
func KeywordKey(source, seed string) string {
	return strings.ToLower(source) + ":" + strings.Join(strings.Fields(strings.ToLower(seed)), " ")
}
