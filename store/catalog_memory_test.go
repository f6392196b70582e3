package store

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/rushteam/swipekit/core"
)

func TestMemoryCatalogProducts(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog()

	c.PutProduct(&core.Product{ID: "p1", Name: "一号", Category: "clothing"})
	c.PutProduct(&core.Product{ID: "p2", Name: "二号"})

	p, err := c.GetProduct(ctx, "p1")
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if p.Name != "一号" {
		t.Errorf("Name = %s", p.Name)
	}
	if _, err := c.GetProduct(ctx, "nope"); !core.IsNotFound(err) {
		t.Errorf("不存在的商品应返回 NOT_FOUND, 实际 %v", err)
	}

	batch, err := c.BatchGetProducts(ctx, []string{"p1", "p2", "nope"})
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 2 {
		t.Errorf("批量读取应跳过缺失商品: %d", len(batch))
	}

	// 返回的是副本, 修改不应影响存储
	p.Category = "hacked"
	p2, _ := c.GetProduct(ctx, "p1")
	if p2.Category != "clothing" {
		t.Error("GetProduct 应返回副本")
	}
}

func TestMemoryCatalogVectors(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog()
	c.PutProduct(&core.Product{ID: "p1"})

	if err := c.SaveVectors(ctx, "nope", nil); !core.IsNotFound(err) {
		t.Errorf("SaveVectors 缺失商品应返回 NOT_FOUND, 实际 %v", err)
	}

	set := core.VectorSet{
		core.ModalityImage: {Modality: core.ModalityImage, Data: []float32{1, 0}},
	}
	if err := c.SaveVectors(ctx, "p1", set); err != nil {
		t.Fatal(err)
	}

	withVec, err := c.ListProductsWithVector(ctx, core.ModalityImage)
	if err != nil {
		t.Fatal(err)
	}
	if len(withVec) != 1 || withVec[0].ID != "p1" {
		t.Errorf("按模态筛选错误: %v", withVec)
	}

	missing, err := c.ListProductIDsMissingVectors(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// image 已就绪但 text/combined 缺失, 仍算未完成
	if len(missing) != 1 || missing[0] != "p1" {
		t.Errorf("缺失向量清单错误: %v", missing)
	}
}

func TestMemoryCatalogRandomProducts(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog()
	c.Rand = rand.New(rand.NewSource(42))
	for _, id := range []string{"a", "b", "c", "d"} {
		c.PutProduct(&core.Product{ID: id})
	}

	got, err := c.RandomProducts(ctx, 2, map[string]struct{}{"a": {}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("期望 2 条, 实际 %d", len(got))
	}
	for _, p := range got {
		if p.ID == "a" {
			t.Error("被排除的商品不应被抽中")
		}
	}
}

func TestMemoryCatalogInteractions(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	c.RecordSwipe("u1", "p1", core.ActionLike, base)
	c.RecordSwipe("u1", "p2", core.ActionDislike, base.Add(time.Minute))
	c.RecordSwipe("u1", "p3", core.ActionLike, base.Add(2*time.Minute))
	// 重复滑动覆盖旧记录
	c.RecordSwipe("u1", "p1", core.ActionDislike, base.Add(3*time.Minute))

	recent, err := c.RecentInteractions(ctx, "u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].ItemID != "p1" || recent[1].ItemID != "p3" {
		t.Errorf("近期记录应按时间倒序: %v", recent)
	}

	likes, err := c.RecentByAction(ctx, "u1", core.ActionLike, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(likes) != 1 || likes[0].ItemID != "p3" {
		t.Errorf("p1 被改判为点踩后点赞应只剩 p3: %v", likes)
	}

	swiped, _ := c.SwipedItemIDs(ctx, "u1")
	if len(swiped) != 3 {
		t.Errorf("滑动集合应含 3 个商品: %v", swiped)
	}
}

func TestMemoryCatalogUsersWithLikes(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog()
	now := time.Now()
	c.RecordSwipe("u1", "a", core.ActionLike, now)
	c.RecordSwipe("u2", "b", core.ActionLike, now)
	c.RecordSwipe("u3", "c", core.ActionDislike, now)

	others, err := c.UsersWithLikes(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := others["u1"]; ok {
		t.Error("应排除当前用户")
	}
	if likes := others["u2"]; len(likes) != 1 || likes[0] != "b" {
		t.Errorf("u2 的点赞集合错误: %v", likes)
	}
	if _, ok := others["u3"]; ok {
		t.Error("只点踩的用户不应出现")
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	defer m.Close()

	if err := m.Set(ctx, "k", "v", 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if v, err := m.Get(ctx, "k"); err != nil || v != "v" {
		t.Fatalf("Get = %v, %v", v, err)
	}
	time.Sleep(50 * time.Millisecond)
	if _, err := m.Get(ctx, "k"); !core.IsNotFound(err) {
		t.Errorf("过期键应返回 NOT_FOUND, 实际 %v", err)
	}

	kvs := map[string]any{"a": 1, "b": 2}
	if err := m.MSet(ctx, kvs, 0); err != nil {
		t.Fatal(err)
	}
	got, err := m.MGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("MGet 应返回 2 个命中: %v", got)
	}
}
