package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/swipekit/store"
)

func TestCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := New(Options{Name: "test"})

	if _, ok := c.Get(ctx, "k1"); ok {
		t.Error("空缓存不应命中")
	}
	c.Set(ctx, "k1", "v1")
	v, ok := c.Get(ctx, "k1")
	if !ok || v != "v1" {
		t.Errorf("Get = %v (%v), 期望 v1", v, ok)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("统计错误: %+v", stats)
	}
}

func TestCacheTTL(t *testing.T) {
	ctx := context.Background()
	c := New(Options{Name: "ttl", TTL: 30 * time.Millisecond})
	c.Set(ctx, "k1", "v1")
	time.Sleep(80 * time.Millisecond)
	if _, ok := c.Get(ctx, "k1"); ok {
		t.Error("过期条目不应命中")
	}
}

func TestCacheBackingFallthrough(t *testing.T) {
	ctx := context.Background()
	backing := store.NewMemoryStore()
	defer backing.Close()

	// 另一个实例写入二级存储后, 本地 LRU 未命中也应回源成功
	_ = backing.Set(ctx, "shared", "from_backing", time.Minute)

	c := New(Options{Name: "shared", Backing: backing})
	v, ok := c.Get(ctx, "shared")
	if !ok || v != "from_backing" {
		t.Errorf("二级回源失败: %v (%v)", v, ok)
	}
	// 回填一级后再次读取仍命中
	if _, ok := c.Get(ctx, "shared"); !ok {
		t.Error("回填后应命中一级缓存")
	}
}

func TestCacheDecode(t *testing.T) {
	ctx := context.Background()
	backing := store.NewMemoryStore()
	defer backing.Close()
	_ = backing.Set(ctx, "k", "raw", time.Minute)

	c := New(Options{
		Name:    "decode",
		Backing: backing,
		Decode: func(any) (any, bool) {
			return nil, false // 无法还原按未命中处理
		},
	})
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("Decode 失败应视为未命中")
	}
}

func TestCacheClearPattern(t *testing.T) {
	ctx := context.Background()
	backing := store.NewMemoryStore()
	defer backing.Close()
	c := New(Options{Name: "clear", Backing: backing})

	c.Set(ctx, "rec:u:u1:l:10", 1)
	c.Set(ctx, "rec:u:u11:l:10", 2)
	c.Set(ctx, "prefs:u:u1:m:plain", 3)

	cleared := c.ClearPattern(ctx, ":u:u1:")
	if cleared != 2 {
		t.Errorf("应清除 2 条, 实际 %d", cleared)
	}
	// u11 的键不应被 u1 的模式误伤
	if _, ok := c.Get(ctx, "rec:u:u11:l:10"); !ok {
		t.Error("u11 的缓存被误清")
	}
	// 二级存储同步清理
	if exists, _ := backing.Exists(ctx, "rec:u:u1:l:10"); exists {
		t.Error("二级存储未同步清理")
	}

	if c.ClearPattern(ctx, "") != 1 {
		t.Error("空模式应清空剩余条目")
	}
}
