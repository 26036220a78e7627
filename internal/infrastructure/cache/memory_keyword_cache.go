package cache

import (
	"context"
	"sync"
	"time"

	"github.com/seoblog/backend/internal/domain/keyword"
)

type memoryEntry struct {
	metrics   []keyword.Metrics
	expiresAt time.Time
}

// InMemoryKeywordCache is the single-process KeywordCache. A background
// goroutine evicts expired entries until Close.
type InMemoryKeywordCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewInMemoryKeywordCache(cleanupInterval time.Duration) *InMemoryKeywordCache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	c := &InMemoryKeywordCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	c.wg.Add(1)
	go c.cleanupLoop(cleanupInterval)
	return c
}

func (c *InMemoryKeywordCache) Get(_ context.Context, key string) ([]keyword.Metrics, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return append([]keyword.Metrics(nil), e.metrics...), true, nil
}

func (c *InMemoryKeywordCache) Set(_ context.Context, key string, metrics []keyword.Metrics, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{
		metrics:   append([]keyword.Metrics(nil), metrics...),
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *InMemoryKeywordCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *InMemoryKeywordCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryKeywordCache) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *InMemoryKeywordCache) evictExpired() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}
