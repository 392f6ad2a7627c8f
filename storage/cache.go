package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"taskticker-api/domain"
)

type backend interface {
	InsertTask(ctx context.Context, ownerID string, in domain.TaskInput) (domain.Task, error)
	TasksByOwner(ctx context.Context, ownerID string) ([]domain.Task, error)
	GetTask(ctx context.Context, ownerID, id string) (domain.Task, error)
	MergeTask(ctx context.Context, ownerID, id string, patch domain.TaskPatch) error
	DeleteTask(ctx context.Context, ownerID, id string) error
	EnqueueTaskEvent(ctx context.Context, userID string, ev domain.TaskEvent) error
}

// Cache wraps a Storage instance with a Redis-backed cache of each owner's
// task list. Every successful mutation evicts the owner's list so the next
// fetch is authoritative.
type Cache struct {
	*Storage
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis client
// and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
	if s, ok := base.(*Storage); ok {
		c.Storage = s
	}
	return c
}

func (c *Cache) InsertTask(ctx context.Context, ownerID string, in domain.TaskInput) (domain.Task, error) {
	task, err := c.base.InsertTask(ctx, ownerID, in)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, ownerID)
	return task, nil
}

func (c *Cache) TasksByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	if tasks, ok := c.loadTasksFromCache(ctx, ownerID); ok {
		return tasks, nil
	}

	tasks, err := c.base.TasksByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	c.storeTasks(ctx, ownerID, tasks)
	return tasks, nil
}

// GetTask always hits the backing store: reads that gate an update must be
// authoritative, not a possibly stale cache entry.
func (c *Cache) GetTask(ctx context.Context, ownerID, id string) (domain.Task, error) {
	return c.base.GetTask(ctx, ownerID, id)
}

func (c *Cache) MergeTask(ctx context.Context, ownerID, id string, patch domain.TaskPatch) error {
	if err := c.base.MergeTask(ctx, ownerID, id, patch); err != nil {
		return err
	}
	c.evict(ctx, ownerID)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, ownerID, id string) error {
	if err := c.base.DeleteTask(ctx, ownerID, id); err != nil {
		return err
	}
	c.evict(ctx, ownerID)
	return nil
}

func (c *Cache) EnqueueTaskEvent(ctx context.Context, userID string, ev domain.TaskEvent) error {
	return c.base.EnqueueTaskEvent(ctx, userID, ev)
}

func (c *Cache) loadTasksFromCache(ctx context.Context, ownerID string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey(ownerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, tasksCacheKey(ownerID)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey(ownerID)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) storeTasks(ctx context.Context, ownerID string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey(ownerID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, ownerID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, tasksCacheKey(ownerID)).Result()
}

func tasksCacheKey(ownerID string) string {
	return "tasks:" + ownerID
}
