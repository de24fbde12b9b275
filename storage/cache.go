package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"taskflow/domain"
)

type backend interface {
	CreateUser(ctx context.Context, user domain.User, passwordHash string) error
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetCredentials(ctx context.Context, email string) (domain.User, string, error)
	ListUsers(ctx context.Context) ([]domain.User, error)

	CreateTask(ctx context.Context, task domain.Task) error
	GetTask(ctx context.Context, id string) (domain.Task, error)
	UpdateTask(ctx context.Context, task domain.Task) error
	ListTasksForUser(ctx context.Context, userID string) ([]domain.Task, error)
}

// Cache wraps a Storage instance with Redis-backed caching for the hot
// dashboard reads: the roster and per-user task lists. Mutations evict the
// keys of every affected participant so the post-mutation refetch observes
// the write. Redis failures fall back to the backing storage silently.
type Cache struct {
	*Storage
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis client and TTL.
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

func (c *Cache) CreateUser(ctx context.Context, user domain.User, passwordHash string) error {
	if err := c.base.CreateUser(ctx, user, passwordHash); err != nil {
		return err
	}
	c.evict(ctx, rosterCacheKey())
	return nil
}

func (c *Cache) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return c.base.GetUserByID(ctx, id)
}

func (c *Cache) GetCredentials(ctx context.Context, email string) (domain.User, string, error) {
	return c.base.GetCredentials(ctx, email)
}

func (c *Cache) ListUsers(ctx context.Context) ([]domain.User, error) {
	if users, ok := loadCached[[]domain.User](ctx, c, rosterCacheKey()); ok {
		return users, nil
	}

	users, err := c.base.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, rosterCacheKey(), users)
	return users, nil
}

func (c *Cache) CreateTask(ctx context.Context, task domain.Task) error {
	if err := c.base.CreateTask(ctx, task); err != nil {
		return err
	}
	c.evictParticipants(ctx, task)
	return nil
}

func (c *Cache) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return c.base.GetTask(ctx, id)
}

func (c *Cache) UpdateTask(ctx context.Context, task domain.Task) error {
	if err := c.base.UpdateTask(ctx, task); err != nil {
		return err
	}
	c.evictParticipants(ctx, task)
	return nil
}

func (c *Cache) ListTasksForUser(ctx context.Context, userID string) ([]domain.Task, error) {
	if tasks, ok := loadCached[[]domain.Task](ctx, c, tasksCacheKey(userID)); ok {
		return tasks, nil
	}

	tasks, err := c.base.ListTasksForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.store(ctx, tasksCacheKey(userID), tasks)
	return tasks, nil
}

// loadCached reads and decodes a cache entry. Corrupt or unreadable entries
// are dropped so the next read repopulates from the backing storage.
func loadCached[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var zero T
	if c.redis == nil {
		return zero, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, key).Err()
		}
		return zero, false
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return zero, false
	}
	return out, true
}

func (c *Cache) store(ctx context.Context, key string, value any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evictParticipants(ctx context.Context, task domain.Task) {
	c.evict(ctx, tasksCacheKey(task.AssignedTo))
	if task.AssignedBy != task.AssignedTo {
		c.evict(ctx, tasksCacheKey(task.AssignedBy))
	}
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil || len(keys) == 0 {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

func tasksCacheKey(userID string) string {
	return "tasks:" + userID
}

func rosterCacheKey() string {
	return "users"
}
