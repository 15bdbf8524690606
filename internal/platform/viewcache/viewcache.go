// Package viewcache provides a small in-memory cache for rendered API
// views, keyed by view kind and entity ID. The conversion workflow
// invalidates affected entries after it completes so readers never see
// stale artifacts.
package viewcache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/domain"
)

// key identifies a cached view.
type key struct {
	kind domain.ViewKind
	id   uuid.UUID
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is an in-memory view cache with per-entry TTL. The zero TTL
// disables expiry; entries then live until invalidated.
type Cache struct {
	mu      sync.RWMutex
	entries map[key]entry
	ttl     time.Duration
	logger  *slog.Logger
}

// New creates a view cache. A zero ttl means entries never expire on
// their own.
func New(ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{
		entries: make(map[key]entry),
		ttl:     ttl,
		logger:  logger.With("component", "view_cache"),
	}
}

// Get returns the cached view for the given kind and ID, if present
// and not expired.
func (c *Cache) Get(kind domain.ViewKind, id uuid.UUID) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key{kind: kind, id: id}]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key{kind: kind, id: id})
		c.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

// Set stores a view for the given kind and ID.
func (c *Cache) Set(kind domain.ViewKind, id uuid.UUID, value interface{}) {
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[key{kind: kind, id: id}] = entry{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Invalidate removes the cached view for the given kind and ID. It
// implements workflow.CacheInvalidator.
func (c *Cache) Invalidate(_ context.Context, kind domain.ViewKind, id uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, key{kind: kind, id: id})
	c.mu.Unlock()

	c.logger.Debug("view invalidated", "kind", kind, "id", id)
}

// Len returns the number of live entries, counting expired ones that
// have not been evicted yet.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
