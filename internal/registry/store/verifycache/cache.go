// Package verifycache caches verification answers on the read path.
//
// Verification is the hot public query and the concurrency model tolerates
// slightly stale reads there, so entries live behind a short TTL. The cache
// never sits in front of audit lookups, which always read committed state.
package verifycache

import (
	"context"
	"sync"
	"time"

	"watsonmark/internal/registry/models"
	id "watsonmark/pkg/domain"
	"watsonmark/pkg/platform/sentinel"
)

// DefaultTTL bounds how stale a cached verification may be.
const DefaultTTL = 30 * time.Second

// Cache stores verification answers keyed by watermark ID.
type Cache interface {
	// Get returns a cached verification or sentinel.ErrNotFound.
	Get(ctx context.Context, wmID id.WatermarkID) (*models.Verification, error)

	// Save stores a verification. Failures are the caller's to ignore:
	// the cache is an optimization, never the source of truth.
	Save(ctx context.Context, wmID id.WatermarkID, verification models.Verification) error

	// Invalidate drops a cached entry after a status change.
	Invalidate(ctx context.Context, wmID id.WatermarkID) error
}

type cachedVerification struct {
	verification models.Verification
	storedAt     time.Time
}

// InMemory provides an in-memory verification cache with TTL expiration.
type InMemory struct {
	mu      sync.RWMutex
	entries map[id.WatermarkID]cachedVerification
	ttl     time.Duration
}

// NewInMemory creates an in-memory cache with the specified TTL.
func NewInMemory(ttl time.Duration) *InMemory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemory{
		entries: make(map[id.WatermarkID]cachedVerification),
		ttl:     ttl,
	}
}

func (c *InMemory) Get(_ context.Context, wmID id.WatermarkID) (*models.Verification, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if cached, ok := c.entries[wmID]; ok {
		if time.Since(cached.storedAt) < c.ttl {
			verification := cached.verification
			return &verification, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (c *InMemory) Save(_ context.Context, wmID id.WatermarkID, verification models.Verification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[wmID] = cachedVerification{verification: verification, storedAt: time.Now()}
	return nil
}

func (c *InMemory) Invalidate(_ context.Context, wmID id.WatermarkID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, wmID)
	return nil
}
