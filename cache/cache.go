// Package cache 提供两级缓存：进程内 TTL-LRU 为主，
// 可选的共享存储（Redis/内存 Store）为副，多实例部署时用于结果共享。
package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/rushteam/swipekit/core"
)

// Options 为缓存配置。
type Options struct {
	// Name 出现在日志与统计中。
	Name string
	// Size 为 LRU 容量，默认 1024。
	Size int
	// TTL 为条目存活时间，默认 180 秒。
	TTL time.Duration
	// Backing 为可选的二级存储，nil 表示仅进程内缓存。
	Backing core.Store
	// Decode 把二级存储中的原始值还原为业务类型；
	// 返回 false 表示无法还原，该值按未命中处理。nil 时原样返回。
	Decode func(any) (any, bool)
	// Logger 为 nil 时不输出日志。
	Logger *zap.Logger
}

// Stats 为缓存命中统计。
type Stats struct {
	Hits   int64
	Misses int64
	Len    int
}

// Cache 是两级缓存。二级存储的读写均为尽力而为：
// 失败只记日志，不影响主流程。
type Cache struct {
	name    string
	ttl     time.Duration
	lru     *expirable.LRU[string, any]
	backing core.Store
	decode  func(any) (any, bool)
	logger  *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64

	// 写入过二级存储的 key，支撑 ClearPattern 的反向清理
	mu          sync.Mutex
	backingKeys map[string]struct{}
}

// New 创建缓存。
func New(opts Options) *Cache {
	size := opts.Size
	if size <= 0 {
		size = 1024
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 180 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		name:        opts.Name,
		ttl:         ttl,
		lru:         expirable.NewLRU[string, any](size, nil, ttl),
		backing:     opts.Backing,
		decode:      opts.Decode,
		logger:      logger,
		backingKeys: make(map[string]struct{}),
	}
}

// Get 读取缓存，一级未命中时回源二级存储并回填一级。
func (c *Cache) Get(ctx context.Context, key string) (any, bool) {
	if v, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return v, true
	}
	if c.backing != nil {
		raw, err := c.backing.Get(ctx, key)
		if err == nil {
			v := raw
			ok := true
			if c.decode != nil {
				v, ok = c.decode(raw)
			}
			if ok {
				c.lru.Add(key, v)
				c.hits.Add(1)
				return v, true
			}
		} else if !core.IsNotFound(err) {
			c.logger.Warn("缓存二级读取失败", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		}
	}
	c.misses.Add(1)
	return nil, false
}

// Set 写入两级缓存。
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.lru.Add(key, value)
	if c.backing == nil {
		return
	}
	if err := c.backing.Set(ctx, key, value, c.ttl); err != nil {
		c.logger.Warn("缓存二级写入失败", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		return
	}
	c.mu.Lock()
	c.backingKeys[key] = struct{}{}
	c.mu.Unlock()
}

// Delete 删除单个键。
func (c *Cache) Delete(ctx context.Context, key string) {
	c.lru.Remove(key)
	if c.backing == nil {
		return
	}
	if err := c.backing.Delete(ctx, key); err != nil {
		c.logger.Warn("缓存二级删除失败", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
	}
	c.mu.Lock()
	delete(c.backingKeys, key)
	c.mu.Unlock()
}

// ClearPattern 删除 key 包含 pattern 子串的全部条目；pattern 为空时清空。
// 返回一级缓存中被清除的条目数。
func (c *Cache) ClearPattern(ctx context.Context, pattern string) int {
	cleared := 0
	for _, key := range c.lru.Keys() {
		if pattern == "" || strings.Contains(key, pattern) {
			c.lru.Remove(key)
			cleared++
		}
	}
	if c.backing != nil {
		c.mu.Lock()
		victims := make([]string, 0, len(c.backingKeys))
		for key := range c.backingKeys {
			if pattern == "" || strings.Contains(key, pattern) {
				victims = append(victims, key)
				delete(c.backingKeys, key)
			}
		}
		c.mu.Unlock()
		for _, key := range victims {
			if err := c.backing.Delete(ctx, key); err != nil {
				c.logger.Warn("缓存二级删除失败", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
			}
		}
	}
	c.logger.Debug("缓存清理完成", zap.String("cache", c.name), zap.String("pattern", pattern), zap.Int("cleared", cleared))
	return cleared
}

// Stats 返回命中统计。
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Len:    c.lru.Len(),
	}
}
