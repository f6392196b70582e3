package recall

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/store"
)

func likeAll(c *store.MemoryCatalog, userID string, at time.Time, ids ...string) {
	for i, id := range ids {
		c.RecordSwipe(userID, id, core.ActionLike, at.Add(time.Duration(i)*time.Second))
	}
}

func TestCollaborativeRecall(t *testing.T) {
	c := store.NewMemoryCatalog()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// u1 与 u2 口味重合 (Jaccard 2/4 = 0.5), u3 完全不同
	likeAll(c, "u1", base, "a", "b", "c")
	likeAll(c, "u2", base, "a", "b", "x")
	likeAll(c, "u3", base, "z")

	src := &CollaborativeSource{Interactions: c}
	rctx := core.NewRecommendContext("u1", 10)
	items, err := src.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatalf("召回失败: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("期望 1 个候选, 实际 %d: %v", len(items), items)
	}
	if items[0].ID != "x" {
		t.Errorf("候选应为相似用户点赞过的 x, 实际 %s", items[0].ID)
	}
	// 唯一候选的票数即最大值, 归一化后为 1
	if math.Abs(items[0].Score-1) > 1e-9 {
		t.Errorf("归一化得分应为 1, 实际 %v", items[0].Score)
	}
}

func TestCollaborativeColdStart(t *testing.T) {
	c := store.NewMemoryCatalog()
	likeAll(c, "u2", time.Now(), "a")

	src := &CollaborativeSource{Interactions: c}
	items, err := src.Recall(context.Background(), core.NewRecommendContext("u1", 10))
	if err != nil {
		t.Fatalf("冷启动用户不应报错: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("冷启动用户应无协同候选, 实际 %v", items)
	}
}

func TestCollaborativeMinSimilarity(t *testing.T) {
	c := store.NewMemoryCatalog()
	base := time.Now()
	likeAll(c, "u1", base, "a", "b", "c", "d", "e", "f", "g", "h", "i")
	// 与 u1 仅重合 1/10 < 0.3, 不够相似
	likeAll(c, "u2", base, "a", "x")

	src := &CollaborativeSource{Interactions: c}
	items, err := src.Recall(context.Background(), core.NewRecommendContext("u1", 10))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("低于相似度阈值的用户不应参与投票, 实际 %v", items)
	}
}

func TestCollaborativeExclude(t *testing.T) {
	c := store.NewMemoryCatalog()
	base := time.Now()
	likeAll(c, "u1", base, "a", "b")
	likeAll(c, "u2", base, "a", "b", "x", "y")

	src := &CollaborativeSource{Interactions: c}
	rctx := core.NewRecommendContext("u1", 10)
	rctx.SetParam("exclude_ids", map[string]struct{}{"x": {}})
	items, err := src.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range items {
		if it.ID == "x" {
			t.Error("被排除的商品不应出现在候选中")
		}
		if it.ID == "a" || it.ID == "b" {
			t.Error("自己点赞过的商品不应出现在候选中")
		}
	}
}

func TestJaccard(t *testing.T) {
	a := toSet([]string{"1", "2", "3"})
	b := toSet([]string{"2", "3", "4"})
	if got := jaccard(a, b); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("jaccard = %v, 期望 0.5", got)
	}
	if got := jaccard(a, nil); got != 0 {
		t.Errorf("空集合 jaccard = %v, 期望 0", got)
	}
}
