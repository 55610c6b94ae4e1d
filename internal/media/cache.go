package media

import (
	"context"
	"time"

	"github.com/angelmondragon/photoalbum-backend/pkg/db/models"
	"github.com/angelmondragon/photoalbum-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedStore serves GetMediaFile from an expiring LRU in front of another
// Store. Records never change after creation so entries need no
// invalidation. Misses are not cached: a lookup for an unknown id always
// reaches the backing store.
type CachedStore struct {
	Store
	cache   *expirable.LRU[uuid.UUID, models.MediaFile]
	metrics *metrics.CacheMetrics
}

func NewCachedStore(next Store, size int, ttl time.Duration, m *metrics.CacheMetrics) *CachedStore {
	if size <= 0 {
		size = 1024
	}
	return &CachedStore{
		Store:   next,
		cache:   expirable.NewLRU[uuid.UUID, models.MediaFile](size, nil, ttl),
		metrics: m,
	}
}

func (c *CachedStore) CreateMediaFile(ctx context.Context, in NewMediaFile) (*models.MediaFile, error) {
	record, err := c.Store.CreateMediaFile(ctx, in)
	if err != nil {
		return nil, err
	}
	c.cache.Add(record.ID, *record)
	return record, nil
}

func (c *CachedStore) GetMediaFile(ctx context.Context, id uuid.UUID) (*models.MediaFile, error) {
	if record, ok := c.cache.Get(id); ok {
		c.metrics.Hit()
		return &record, nil
	}
	c.metrics.Miss()

	record, err := c.Store.GetMediaFile(ctx, id)
	if err != nil || record == nil {
		return record, err
	}
	c.cache.Add(id, *record)
	return record, nil
}

// Len reports the number of cached records.
func (c *CachedStore) Len() int {
	return c.cache.Len()
}
