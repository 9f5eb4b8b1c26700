package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/microblog/pkg/logger"
)

// Loader 缓存未命中时回源查询
type Loader func(ctx context.Context) (bool, error)

// FollowCache 按有序对缓存 is_following 结果（包括否定结果）。
// 写路径在事务提交后调用 Invalidate。
type FollowCache struct {
	client *redis.Client
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewFollowCache(client *redis.Client, ttl time.Duration) *FollowCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &FollowCache{client: client, ttl: ttl}
}

func followKey(actorID, targetID uint) string {
	return fmt.Sprintf("follow:%d:%d", actorID, targetID)
}

// IsFollowing 先查 Redis，未命中则调用 load 并回填。Redis 故障时直接回源。
func (c *FollowCache) IsFollowing(ctx context.Context, actorID, targetID uint, load Loader) (bool, error) {
	key := followKey(actorID, targetID)
	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		c.hits.Add(1)
		return val == "1", nil
	case !errors.Is(err, redis.Nil):
		logger.Warn("follow cache get failed", zap.String("key", key), zap.Error(err))
	}

	c.misses.Add(1)
	ok, err := load(ctx)
	if err != nil {
		return false, err
	}
	v := "0"
	if ok {
		v = "1"
	}
	if err := c.client.Set(ctx, key, v, c.ttl).Err(); err != nil {
		logger.Warn("follow cache set failed", zap.String("key", key), zap.Error(err))
	}
	return ok, nil
}

// Invalidate 删除一对用户的缓存
func (c *FollowCache) Invalidate(ctx context.Context, actorID, targetID uint) error {
	return c.client.Del(ctx, followKey(actorID, targetID)).Err()
}

// ResetCounters 计数清零，压测各场景之间调用
func (c *FollowCache) ResetCounters() {
	c.hits.Store(0)
	c.misses.Store(0)
}

// Counters 上次清零以来的命中/未命中次数
func (c *FollowCache) Counters() Counters {
	return Counters{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

type Counters struct {
	Hits   int64
	Misses int64
}
