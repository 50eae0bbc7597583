package logic

import (
	"context"
	"encoding/json"
	"time"

	"deepchat-backend/pkg"

	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// MemorySearcher is the slice of the memory service client the cache wraps.
type MemorySearcher interface {
	SearchMemories(ctx context.Context, userID string, limit int) ([]pkg.Memory, error)
}

// MemoryStore is the snapshot store behind the cache. The in-process backend
// is the default; a redis backend gives multi-instance deployments a shared
// cache without changing call sites.
type MemoryStore interface {
	Get(ctx context.Context, userID string) ([]pkg.Memory, bool)
	Set(ctx context.Context, userID string, memories []pkg.Memory)
	Delete(ctx context.Context, userID string)
}

// localStore keeps snapshots in-process with per-key expiry.
type localStore struct {
	cache *gocache.Cache
}

func NewLocalStore(ttl time.Duration) MemoryStore {
	return &localStore{cache: gocache.New(ttl, ttl*2)}
}

func (s *localStore) Get(_ context.Context, userID string) ([]pkg.Memory, bool) {
	if val, found := s.cache.Get(userID); found {
		return val.([]pkg.Memory), true
	}
	return nil, false
}

func (s *localStore) Set(_ context.Context, userID string, memories []pkg.Memory) {
	s.cache.SetDefault(userID, memories)
}

func (s *localStore) Delete(_ context.Context, userID string) {
	s.cache.Delete(userID)
}

// redisStore keeps snapshots in redis so cache state survives the process
// and is shared across instances.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) MemoryStore {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) key(userID string) string {
	return "memories:" + userID
}

func (s *redisStore) Get(ctx context.Context, userID string) ([]pkg.Memory, bool) {
	raw, err := s.client.Get(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, false
	}
	var memories []pkg.Memory
	if err := json.Unmarshal([]byte(raw), &memories); err != nil {
		return nil, false
	}
	return memories, true
}

func (s *redisStore) Set(ctx context.Context, userID string, memories []pkg.Memory) {
	raw, err := json.Marshal(memories)
	if err != nil {
		return
	}
	s.client.Set(ctx, s.key(userID), raw, s.ttl)
}

func (s *redisStore) Delete(ctx context.Context, userID string) {
	s.client.Del(ctx, s.key(userID))
}

// MemoryCache is the TTL-bounded read path in front of the memory service.
type MemoryCache struct {
	store  MemoryStore
	client MemorySearcher
	limit  int
	logger *logrus.Logger
}

func NewMemoryCache(store MemoryStore, client MemorySearcher, limit int, logger *logrus.Logger) *MemoryCache {
	return &MemoryCache{
		store:  store,
		client: client,
		limit:  limit,
		logger: logger,
	}
}

// GetMemories returns the user's memory snapshot, served from cache while
// fresh. A fetch failure propagates; there is no negative caching.
func (c *MemoryCache) GetMemories(ctx context.Context, userID string) ([]pkg.Memory, error) {
	if userID == "" || c.client == nil {
		return nil, nil
	}

	if memories, found := c.store.Get(ctx, userID); found {
		observeMemoryCache(true)
		c.logger.WithField("user_id", userID).Debug("Memory cache hit")
		return memories, nil
	}
	observeMemoryCache(false)

	memories, err := c.client.SearchMemories(ctx, userID, c.limit)
	if err != nil {
		return nil, err
	}

	c.store.Set(ctx, userID, memories)
	return memories, nil
}

// Invalidate drops the cached snapshot so the next read refetches.
func (c *MemoryCache) Invalidate(ctx context.Context, userID string) {
	c.store.Delete(ctx, userID)
}
