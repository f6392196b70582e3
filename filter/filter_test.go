package filter

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/store"
)

func TestSwipedFilter(t *testing.T) {
	c := store.NewMemoryCatalog()
	c.RecordSwipe("u1", "seen", core.ActionLike, time.Now())

	f := &SwipedFilter{Interactions: c}
	rctx := core.NewRecommendContext("u1", 10)
	rctx.SetParam("exclude_ids", []string{"banned"})

	tests := []struct {
		id   string
		want bool
	}{
		{"seen", true},   // 已滑动
		{"banned", true}, // 请求方排除
		{"new", false},
	}
	for _, tt := range tests {
		got, err := f.ShouldFilter(context.Background(), rctx, core.NewItem(tt.id))
		if err != nil {
			t.Fatalf("过滤 %s 失败: %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("ShouldFilter(%s) = %v, 期望 %v", tt.id, got, tt.want)
		}
	}
}

func TestAttributeFilter(t *testing.T) {
	f := &AttributeFilter{}
	rctx := core.NewRecommendContext("u1", 10)
	rctx.SetParam("category", "clothing")

	match := core.NewItem("a")
	match.SetMeta("category", "clothing")
	miss := core.NewItem("b")
	miss.SetMeta("category", "shoes")
	unknown := core.NewItem("c") // 缺失属性视为不匹配

	for _, tt := range []struct {
		item *core.Item
		want bool
	}{
		{match, false},
		{miss, true},
		{unknown, true},
	} {
		got, err := f.ShouldFilter(context.Background(), rctx, tt.item)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("ShouldFilter(%s) = %v, 期望 %v", tt.item.ID, got, tt.want)
		}
	}
}

func TestExprFilter(t *testing.T) {
	f := &ExprFilter{Expr: `item.score < 0.2`}
	rctx := core.NewRecommendContext("u1", 10)

	low := core.NewItem("low").WithScore(0.1)
	high := core.NewItem("high").WithScore(0.9)

	if got, err := f.ShouldFilter(context.Background(), rctx, low); err != nil || !got {
		t.Errorf("低分候选应被剔除: got=%v err=%v", got, err)
	}
	if got, err := f.ShouldFilter(context.Background(), rctx, high); err != nil || got {
		t.Errorf("高分候选应保留: got=%v err=%v", got, err)
	}
}

func TestExprFilterByLabel(t *testing.T) {
	f := &ExprFilter{Expr: `label.recall == "random"`}
	rctx := core.NewRecommendContext("u1", 10)

	it := core.NewItem("a")
	it.AddLabel("random", "recall")
	if got, err := f.ShouldFilter(context.Background(), rctx, it); err != nil || !got {
		t.Errorf("标签命中应被剔除: got=%v err=%v", got, err)
	}
}

func TestBlacklistFilter(t *testing.T) {
	f := &BlacklistFilter{ItemIDs: []string{"bad"}}
	got, err := f.ShouldFilter(context.Background(), core.NewRecommendContext("u1", 10), core.NewItem("bad"))
	if err != nil || !got {
		t.Errorf("静态黑名单未生效: got=%v err=%v", got, err)
	}
}

func TestBlacklistFilterFromStore(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	defer kv.Close()
	_ = kv.Set(ctx, "blacklist:global", []string{"dyn"}, 0)

	f := &BlacklistFilter{
		Store: NewStoreAdapter(kv),
		Key:   "blacklist:global",
	}
	got, err := f.ShouldFilter(ctx, core.NewRecommendContext("u1", 10), core.NewItem("dyn"))
	if err != nil || !got {
		t.Errorf("动态黑名单未生效: got=%v err=%v", got, err)
	}
	// 名单不存在按空名单处理
	f.Key = "blacklist:missing"
	got, err = f.ShouldFilter(ctx, core.NewRecommendContext("u1", 10), core.NewItem("dyn"))
	if err != nil || got {
		t.Errorf("名单缺失不应误杀: got=%v err=%v", got, err)
	}
}

func TestFilterNode(t *testing.T) {
	n := &FilterNode{Filters: []Filter{
		&BlacklistFilter{ItemIDs: []string{"bad"}},
	}}
	items := []*core.Item{core.NewItem("bad"), core.NewItem("good")}
	out, err := n.Process(context.Background(), core.NewRecommendContext("u1", 10), items)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "good" {
		t.Errorf("过滤结果错误: %v", out)
	}
}
