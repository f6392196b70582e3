package core

import (
	"context"
	"time"
)

// Store 为键值存储抽象，缓存层与 Redis / 内存实现共用。
type Store interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// KeyValueStore 在 Store 之上增加批量读写。
type KeyValueStore interface {
	Store
	MGet(ctx context.Context, keys []string) (map[string]any, error)
	MSet(ctx context.Context, kvs map[string]any, ttl time.Duration) error
}
