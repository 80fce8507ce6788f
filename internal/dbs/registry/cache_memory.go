package registry

import (
	"context"
	"sync"
	"time"

	"childminder/internal/dbs/models"
	"childminder/pkg/domain"
)

type memoryEntry struct {
	record    *models.RegistryRecord
	expiresAt time.Time
}

// MemoryCache is a process-local LookupCache with TTL expiration.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[domain.CertificateNumber]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[domain.CertificateNumber]memoryEntry),
		now:     time.Now,
	}
}

// Get returns ErrCacheMiss for unknown or expired entries.
func (c *MemoryCache) Get(_ context.Context, number domain.CertificateNumber) (CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[number]
	if !ok || !c.now().Before(e.expiresAt) {
		return CacheEntry{}, ErrCacheMiss
	}
	if e.record == nil {
		return CacheEntry{}, nil
	}
	record := *e.record
	return CacheEntry{Record: &record}, nil
}

func (c *MemoryCache) Put(_ context.Context, number domain.CertificateNumber, entry CacheEntry, ttl time.Duration) error {
	var record *models.RegistryRecord
	if entry.Record != nil {
		copied := *entry.Record
		record = &copied
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[number] = memoryEntry{record: record, expiresAt: c.now().Add(ttl)}
	return nil
}

// Purge drops expired entries. Safe to call from a background ticker.
func (c *MemoryCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}
