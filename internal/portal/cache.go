// internal/portal/cache.go
package portal

import (
	"context"
	"encoding/json"
	"time"

	"intern-portal/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

const documentTypesKey = "portal:cache:document_types"

// documentTypeLister is the slice of Client the cache needs.
type documentTypeLister interface {
	ListDocumentTypes(ctx context.Context) ([]DocumentType, error)
}

// DocumentTypeCache serves the document-type list from redis within a TTL,
// falling back to the backend on a miss or when redis is unavailable.
type DocumentTypeCache struct {
	lister documentTypeLister
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewDocumentTypeCache(lister documentTypeLister, rdb *redis.Client, ttl time.Duration, log logger.Logger) *DocumentTypeCache {
	return &DocumentTypeCache{
		lister: lister,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "doctype-cache"}),
	}
}

// Types returns the document-type list, cached.
func (c *DocumentTypeCache) Types(ctx context.Context) ([]DocumentType, error) {
	if c.rdb != nil {
		cached, err := c.rdb.Get(ctx, documentTypesKey).Result()
		if err == nil {
			var types []DocumentType
			if err := json.Unmarshal([]byte(cached), &types); err == nil {
				return types, nil
			}
			// Corrupt entry; drop it and refetch.
			_ = c.rdb.Del(ctx, documentTypesKey).Err()
		} else if err != redis.Nil {
			c.logger.Warn("cache read failed, fetching direct", map[string]interface{}{"error": err.Error()})
		}
	}
	return c.fetchAndStore(ctx)
}

// Refresh invalidates the cached list and refetches it. Backs the UI's
// "reload document types" action.
func (c *DocumentTypeCache) Refresh(ctx context.Context) ([]DocumentType, error) {
	if c.rdb != nil {
		_ = c.rdb.Del(ctx, documentTypesKey).Err()
	}
	return c.fetchAndStore(ctx)
}

func (c *DocumentTypeCache) fetchAndStore(ctx context.Context) ([]DocumentType, error) {
	types, err := c.lister.ListDocumentTypes(ctx)
	if err != nil {
		return nil, err
	}

	if c.rdb != nil {
		if data, err := json.Marshal(types); err == nil {
			if err := c.rdb.Set(ctx, documentTypesKey, data, c.ttl).Err(); err != nil {
				c.logger.Warn("cache write failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
	return types, nil
}
