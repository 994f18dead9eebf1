package customization

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vmelnikov/food_ordering/internal/models"
)

type cacheEntry struct {
	updatedAt time.Time
	schema    *Schema
}

// SchemaCache memoizes built schemas per menu item. Entries are keyed by
// the item's UpdatedAt so catalog edits invalidate naturally. Schemas are
// immutable values, safe to share across concurrent readers.
type SchemaCache struct {
	mu sync.RWMutex
	m  map[uuid.UUID]cacheEntry
}

func NewSchemaCache() *SchemaCache {
	return &SchemaCache{m: make(map[uuid.UUID]cacheEntry)}
}

func (c *SchemaCache) For(item *models.MenuItem) *Schema {
	c.mu.RLock()
	e, ok := c.m[item.ID]
	c.mu.RUnlock()
	if ok && e.updatedAt.Equal(item.UpdatedAt) {
		return e.schema
	}

	s := Build(item)

	c.mu.Lock()
	c.m[item.ID] = cacheEntry{updatedAt: item.UpdatedAt, schema: s}
	c.mu.Unlock()
	return s
}
