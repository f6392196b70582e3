package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/swipekit/core"
)

// RedisStore 是 Redis 实现的 KeyValueStore，分布式部署时承担共享缓存。
// 值以 JSON 编码写入，读取时返回原始字符串，由调用方解码。
type RedisStore struct {
	client *redis.Client
}

var (
	_ core.Store         = (*RedisStore)(nil)
	_ core.KeyValueStore = (*RedisStore)(nil)
)

func NewRedisStore(addr string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, core.WrapDomainError("store", core.ErrCodeDependencyFailure, "redis 连接失败", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient 复用调用方已创建的客户端。
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func encode(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", core.WrapDomainError("store", core.ErrCodeInvalidInput, "值无法 JSON 编码", err)
		}
		return string(data), nil
	}
}

func (r *RedisStore) Get(ctx context.Context, key string) (any, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, core.NewDomainError("store", core.ErrCodeNotFound, "key 不存在: "+key)
	}
	if err != nil {
		return nil, core.WrapDomainError("store", core.ErrCodeDependencyFailure, "redis get 失败", err)
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return core.WrapDomainError("store", core.ErrCodeDependencyFailure, "redis set 失败", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return core.WrapDomainError("store", core.ErrCodeDependencyFailure, "redis del 失败", err)
	}
	return nil
}

func (r *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, core.WrapDomainError("store", core.ErrCodeDependencyFailure, "redis exists 失败", err)
	}
	return n > 0, nil
}

func (r *RedisStore) MGet(ctx context.Context, keys []string) (map[string]any, error) {
	if len(keys) == 0 {
		return map[string]any{}, nil
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, core.WrapDomainError("store", core.ErrCodeDependencyFailure, "redis mget 失败", err)
	}
	result := make(map[string]any, len(keys))
	for i, k := range keys {
		if vals[i] != nil {
			result[k] = vals[i]
		}
	}
	return result, nil
}

func (r *RedisStore) MSet(ctx context.Context, kvs map[string]any, ttl time.Duration) error {
	pipe := r.client.Pipeline()
	for k, v := range kvs {
		data, err := encode(v)
		if err != nil {
			return err
		}
		pipe.Set(ctx, k, data, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return core.WrapDomainError("store", core.ErrCodeDependencyFailure, "redis pipeline 失败", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
