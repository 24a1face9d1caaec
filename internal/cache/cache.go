// Package cache provides a time-bounded memoization layer for embedding
// computations, keyed by a content hash of the input text.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/spigell/resume-ranker/internal/ai"
)

const defaultTTL = time.Hour

type entry struct {
	vector    []float64
	createdAt time.Time
}

// Cache memoizes embedding vectors per content hash. Entries older than the
// TTL are treated as absent and lazily overwritten on next access; they are
// never swept proactively. Safe for concurrent use. Concurrent first-time
// requests for the same key may compute the embedding twice; the embedder
// call happens outside the lock so one slow computation does not block
// lookups for other keys.
type Cache struct {
	embedder ai.Embedder
	ttl      time.Duration

	mu      sync.Mutex
	entries map[string]entry

	now func() time.Time // for testing
}

// New creates a cache backed by the provided embedder. A non-positive ttl
// falls back to one hour.
func New(embedder ai.Embedder, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Cache{
		embedder: embedder,
		ttl:      ttl,
		entries:  make(map[string]entry),
		now:      time.Now,
	}
}

// Key returns the cache key for the provided text.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", sum[:])
}

// Resolve returns the embedding vector for the text, computing and storing it
// on a miss or after expiry. Embedder failures propagate uncached.
func (c *Cache) Resolve(ctx context.Context, text string) ([]float64, error) {
	key := Key(text)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.createdAt) < c.ttl {
		c.mu.Unlock()
		return e.vector, nil
	}
	c.mu.Unlock()

	vector, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	c.mu.Lock()
	c.entries[key] = entry{vector: vector, createdAt: c.now()}
	c.mu.Unlock()

	return vector, nil
}

// Len returns the number of resident entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries unconditionally and returns the prior count.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cleared := len(c.entries)
	c.entries = make(map[string]entry)
	return cleared
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}
