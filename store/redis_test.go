package store

import (
	"context"
	"testing"
	"time"
)

// TestRedisStore 需要本地 Redis 实例。
func TestRedisStore(t *testing.T) {
	t.Skip("需要本地 Redis 才能运行")

	ctx := context.Background()
	s, err := NewRedisStore("localhost:6379", 0)
	if err != nil {
		t.Fatalf("连接失败: %v", err)
	}
	defer s.Close()

	if err := s.Set(ctx, "swipekit:test", map[string]any{"a": 1}, time.Minute); err != nil {
		t.Fatal(err)
	}
	v, err := s.Get(ctx, "swipekit:test")
	if err != nil {
		t.Fatal(err)
	}
	// 非字符串值以 JSON 落盘, 读取得到原始字符串
	if _, ok := v.(string); !ok {
		t.Errorf("Get 应返回字符串: %T", v)
	}
	_ = s.Delete(ctx, "swipekit:test")
}

func TestEncode(t *testing.T) {
	if got, err := encode("raw"); err != nil || got != "raw" {
		t.Errorf("字符串应原样返回: %v, %v", got, err)
	}
	if got, err := encode([]byte("bin")); err != nil || got != "bin" {
		t.Errorf("字节串应原样返回: %v, %v", got, err)
	}
	got, err := encode(map[string]int{"a": 1})
	if err != nil || got != `{"a":1}` {
		t.Errorf("其他类型应 JSON 编码: %v, %v", got, err)
	}
}
