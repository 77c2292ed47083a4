package cache

import (
	"context"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
	"sync"
	"time"
)

type memoryEntry struct {
	m       *domain.CostMatrix
	expires time.Time
}

// In-process matrix cache with an optional TTL. Entries are copied on the way
// in and out so callers never share backing arrays with the cache.
type MemoryMatrixCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ ports.MatrixCache = (*MemoryMatrixCache)(nil)

// ttl <= 0 keeps entries for the life of the process.
func NewMemoryMatrixCache(ttl time.Duration) *MemoryMatrixCache {
	return &MemoryMatrixCache{ttl: ttl, entries: map[string]memoryEntry{}, now: time.Now}
}

func (c *MemoryMatrixCache) Get(_ context.Context, fp string) (*domain.CostMatrix, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[fp]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, fp)
		c.mu.Unlock()
		return nil, false, nil
	}
	return copyMatrix(e.m), true, nil
}

func (c *MemoryMatrixCache) Put(_ context.Context, fp string, m *domain.CostMatrix) error {
	if err := checkFingerprint(fp); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}

	e := memoryEntry{m: copyMatrix(m)}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fp] = e
	return nil
}

func (c *MemoryMatrixCache) Invalidate(_ context.Context, fp string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, fp)
	return nil
}

func (c *MemoryMatrixCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func copyMatrix(m *domain.CostMatrix) *domain.CostMatrix {
	perm := make([]int, m.Size)
	for i := range perm {
		perm[i] = i
	}
	return m.Permute(perm)
}
