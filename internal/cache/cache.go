// Package cache holds ledger identifiers looked up during a run so
// repeated runs (and repeated orders within a run) skip redundant
// network lookups. Entries expire by TTL only; a stale entry pointing at
// a deleted ledger record surfaces as a 404 at invoice-creation time.
package cache

import (
	"os"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"ordersync/internal/logger"
)

// Lookup kinds namespacing the natural keys.
const (
	KindContact = "contact"
	KindProduct = "product"
)

// Cache is a TTL'd key-value store for ledger identifiers, optionally
// persisted to disk between runs.
type Cache struct {
	store *gocache.Cache
	log   zerolog.Logger
}

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		store: gocache.New(ttl, ttl),
		log:   logger.WithComponent("cache"),
	}
}

func cacheKey(kind, naturalKey string) string {
	return kind + ":" + naturalKey
}

// GetID returns the cached ledger identifier for (kind, naturalKey).
func (c *Cache) GetID(kind, naturalKey string) (int64, bool) {
	v, ok := c.store.Get(cacheKey(kind, naturalKey))
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// SetID stores a ledger identifier under (kind, naturalKey).
func (c *Cache) SetID(kind, naturalKey string, id int64) {
	c.store.SetDefault(cacheKey(kind, naturalKey), id)
}

// Load restores previously persisted entries. A missing or unreadable
// file is a clean start, not an error.
func (c *Cache) Load(path string) {
	if path == "" {
		return
	}
	if err := c.store.LoadFile(path); err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn().Err(err).Str("file", path).Msg("Could not load cache file, starting empty")
		}
		return
	}
	c.log.Debug().Str("file", path).Int("entries", c.store.ItemCount()).Msg("Cache loaded")
}

// Save persists current entries to disk.
func (c *Cache) Save(path string) error {
	if path == "" {
		return nil
	}
	if err := c.store.SaveFile(path); err != nil {
		c.log.Warn().Err(err).Str("file", path).Msg("Could not persist cache")
		return err
	}
	return nil
}
