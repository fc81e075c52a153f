package cache

import (
	"context"
	"encoding/json"
	"time"

	dom "github.com/Roroshi7/TaskManager/internal/domain"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

const keyListPrefix = "tasks:list:"

// TaskCache caches each owner's full task list in Redis. Any write to an
// owner's tasks invalidates that owner's key.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

func listKey(owner uuid.UUID) string {
	return keyListPrefix + owner.String()
}

// GetList returns the cached list for owner, or nil on miss.
func (c *TaskCache) GetList(ctx context.Context, owner uuid.UUID) ([]dom.Task, error) {
	b, err := c.rdb.Get(ctx, listKey(owner)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []dom.Task
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetList stores the owner's list in cache.
func (c *TaskCache) SetList(ctx context.Context, owner uuid.UUID, list []dom.Task) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, listKey(owner), b, c.ttl).Err()
}

// Invalidate removes the owner's cached list.
func (c *TaskCache) Invalidate(ctx context.Context, owner uuid.UUID) error {
	return c.rdb.Del(ctx, listKey(owner)).Err()
}
