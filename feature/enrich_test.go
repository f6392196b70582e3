package feature

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/store"
)

// fakeMetaService 返回预置属性, 或整体报错。
type fakeMetaService struct {
	metas map[string]core.ItemMeta
	err   error
}

func (s *fakeMetaService) BatchGetItemMeta(_ context.Context, ids []string) (map[string]core.ItemMeta, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]core.ItemMeta, len(ids))
	for _, id := range ids {
		if m, ok := s.metas[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func TestEnrichFromMetaService(t *testing.T) {
	n := &EnrichNode{
		MetaService: &fakeMetaService{metas: map[string]core.ItemMeta{
			"p1": {Category: "clothing", BrandID: "b1"},
		}},
	}
	items := []*core.Item{core.NewItem("p1")}
	out, err := n.Process(context.Background(), core.NewRecommendContext("u1", 10), items)
	if err != nil {
		t.Fatalf("补全失败: %v", err)
	}
	if out[0].MetaString("category") != "clothing" || out[0].MetaString("brand_id") != "b1" {
		t.Errorf("属性未补全: %v", out[0].Meta)
	}
}

func TestEnrichFallbackToCatalog(t *testing.T) {
	c := store.NewMemoryCatalog()
	c.PutProduct(&core.Product{ID: "p1", Category: "shoes", BrandID: "b2"})

	// 特征平台整体失败时回落到目录, 不中断流水线
	n := &EnrichNode{
		MetaService: &fakeMetaService{err: errors.New("feast down")},
		Catalog:     c,
	}
	out, err := n.Process(context.Background(), core.NewRecommendContext("u1", 10), []*core.Item{core.NewItem("p1")})
	if err != nil {
		t.Fatalf("回落失败: %v", err)
	}
	if out[0].MetaString("category") != "shoes" {
		t.Errorf("目录回落未生效: %v", out[0].Meta)
	}
}

func TestEnrichKeepsExistingMeta(t *testing.T) {
	c := store.NewMemoryCatalog()
	c.PutProduct(&core.Product{ID: "p1", Category: "shoes", BrandID: "b2"})

	it := core.NewItem("p1")
	it.SetMeta("category", "manual")
	it.SetMeta("brand_id", "manual")

	n := &EnrichNode{Catalog: c}
	out, err := n.Process(context.Background(), core.NewRecommendContext("u1", 10), []*core.Item{it})
	if err != nil {
		t.Fatal(err)
	}
	if out[0].MetaString("category") != "manual" {
		t.Error("已存在的属性不应被覆盖")
	}
}

func TestEnrichUnknownItem(t *testing.T) {
	c := store.NewMemoryCatalog()
	n := &EnrichNode{Catalog: c}
	out, err := n.Process(context.Background(), core.NewRecommendContext("u1", 10), []*core.Item{core.NewItem("ghost")})
	if err != nil {
		t.Fatal(err)
	}
	if len(out[0].Meta) != 0 {
		t.Errorf("取不到属性的条目应保持原样: %v", out[0].Meta)
	}
}
