package vector

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rushteam/swipekit/core"
)

func vecSet(image, text []float32) core.VectorSet {
	set := make(core.VectorSet)
	if len(image) > 0 {
		set[core.ModalityImage] = core.Vector{Modality: core.ModalityImage, Data: image}
	}
	if len(text) > 0 {
		set[core.ModalityText] = core.Vector{Modality: core.ModalityText, Data: text}
	}
	return set
}

func TestBucketIndexInsertSearch(t *testing.T) {
	ctx := context.Background()
	idx := NewBucketIndex()

	if err := idx.Insert(ctx, "p1", vecSet([]float32{1, 0}, nil)); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if err := idx.Insert(ctx, "p2", vecSet([]float32{0, 1}, nil)); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if err := idx.Insert(ctx, "p3", vecSet([]float32{0.9, 0.1}, nil)); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	hits, err := idx.Search(ctx, core.SearchRequest{
		Query: vecSet([]float32{1, 0}, nil),
		TopK:  2,
	})
	if err != nil {
		t.Fatalf("检索失败: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("期望 2 条命中, 实际 %d", len(hits))
	}
	if hits[0].ID != "p1" || hits[1].ID != "p3" {
		t.Errorf("命中顺序错误: %v", hits)
	}
	if hits[0].Score < hits[1].Score {
		t.Error("结果应按得分降序")
	}
}

func TestBucketIndexInsertValidation(t *testing.T) {
	ctx := context.Background()
	idx := NewBucketIndex()

	if err := idx.Insert(ctx, "", vecSet([]float32{1}, nil)); !core.IsInvalidInput(err) {
		t.Errorf("空 ID 应返回 INVALID_INPUT, 实际 %v", err)
	}
	if err := idx.Insert(ctx, "p1", core.VectorSet{}); !core.IsInvalidInput(err) {
		t.Errorf("空向量集合应返回 INVALID_INPUT, 实际 %v", err)
	}
}

func TestBucketIndexExclude(t *testing.T) {
	ctx := context.Background()
	idx := NewBucketIndex()
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("p%d", i)
		if err := idx.Insert(ctx, id, vecSet([]float32{1, float32(i) * 0.1}, nil)); err != nil {
			t.Fatal(err)
		}
	}

	hits, err := idx.Search(ctx, core.SearchRequest{
		Query:   vecSet([]float32{1, 0}, nil),
		TopK:    5,
		Exclude: map[string]struct{}{"p0": {}, "p1": {}},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range hits {
		if h.ID == "p0" || h.ID == "p1" {
			t.Errorf("被排除的条目 %s 出现在结果中", h.ID)
		}
	}
	if len(hits) != 3 {
		t.Errorf("期望 3 条命中, 实际 %d", len(hits))
	}
}

func TestBucketIndexAttributeFilter(t *testing.T) {
	ctx := context.Background()
	idx := NewBucketIndex()
	idx.MetaLookup = func(id string) (core.ItemMeta, bool) {
		meta := map[string]core.ItemMeta{
			"p1": {Category: "clothing", BrandID: "b1"},
			"p2": {Category: "shoes", BrandID: "b1"},
		}
		m, ok := meta[id]
		return m, ok
	}
	_ = idx.Insert(ctx, "p1", vecSet([]float32{1, 0}, nil))
	_ = idx.Insert(ctx, "p2", vecSet([]float32{1, 0.1}, nil))

	hits, err := idx.Search(ctx, core.SearchRequest{
		Query:    vecSet([]float32{1, 0}, nil),
		TopK:     10,
		Category: "clothing",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "p1" {
		t.Errorf("类目过滤结果错误: %v", hits)
	}
}

func TestBucketIndexUnavailable(t *testing.T) {
	ctx := context.Background()
	idx := NewBucketIndex()

	// 空索引
	_, err := idx.Search(ctx, core.SearchRequest{Query: vecSet([]float32{1, 0}, nil), TopK: 5})
	if !core.IsUnavailable(err) {
		t.Errorf("空索引应返回 UNAVAILABLE, 实际 %v", err)
	}

	// 模态/维度不匹配同样命不中任何桶
	_ = idx.Insert(ctx, "p1", vecSet([]float32{1, 0}, nil))
	_, err = idx.Search(ctx, core.SearchRequest{Query: vecSet([]float32{1, 0, 0}, nil), TopK: 5})
	if !core.IsUnavailable(err) {
		t.Errorf("维度不匹配应返回 UNAVAILABLE, 实际 %v", err)
	}
}

// 同 ID 覆盖写后旧行失效，检索只能命中最新向量。
func TestBucketIndexOverwrite(t *testing.T) {
	ctx := context.Background()
	idx := NewBucketIndex()
	_ = idx.Insert(ctx, "p1", vecSet([]float32{1, 0}, nil))
	_ = idx.Insert(ctx, "p1", vecSet([]float32{0, 1}, nil))

	hits, err := idx.Search(ctx, core.SearchRequest{Query: vecSet([]float32{0, 1}, nil), TopK: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("覆盖写后应只有一条命中, 实际 %d", len(hits))
	}
	if hits[0].Score < 0.999 {
		t.Errorf("应命中最新向量, 得分 %v", hits[0].Score)
	}
}

func TestBucketIndexRemoveRebuild(t *testing.T) {
	ctx := context.Background()
	idx := NewBucketIndex()
	_ = idx.Insert(ctx, "p1", vecSet([]float32{1, 0}, nil))
	_ = idx.Insert(ctx, "p2", vecSet([]float32{0, 1}, nil))

	if err := idx.Remove(ctx, "nope"); !core.IsNotFound(err) {
		t.Errorf("删除未知条目应返回 NOT_FOUND, 实际 %v", err)
	}
	if err := idx.Remove(ctx, "p1"); err != nil {
		t.Fatal(err)
	}

	hits, err := idx.Search(ctx, core.SearchRequest{Query: vecSet([]float32{1, 0}, nil), TopK: 10})
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range hits {
		if h.ID == "p1" {
			t.Error("已删除条目不应出现在结果中")
		}
	}

	stats := idx.Stats()
	if stats.Live != 1 || stats.Tombstones != 1 {
		t.Errorf("Stats = %+v, 期望 Live 1 / Tombstones 1", stats)
	}

	if err := idx.Rebuild(ctx); err != nil {
		t.Fatal(err)
	}
	stats = idx.Stats()
	if stats.Live != 1 || stats.Tombstones != 0 {
		t.Errorf("重建后 Stats = %+v, 期望 Live 1 / Tombstones 0", stats)
	}

	// 删除后重新写入应复活
	if err := idx.Insert(ctx, "p1", vecSet([]float32{1, 0}, nil)); err != nil {
		t.Fatal(err)
	}
	hits, _ = idx.Search(ctx, core.SearchRequest{Query: vecSet([]float32{1, 0}, nil), TopK: 10})
	found := false
	for _, h := range hits {
		if h.ID == "p1" {
			found = true
		}
	}
	if !found {
		t.Error("重新写入的条目应可检索")
	}
}

// 写入与检索并发执行不应崩溃或产出脏数据。
func TestBucketIndexConcurrent(t *testing.T) {
	ctx := context.Background()
	idx := NewBucketIndex()
	_ = idx.Insert(ctx, "seed", vecSet([]float32{1, 0}, nil))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := fmt.Sprintf("w%d-%d", n, j)
				_ = idx.Insert(ctx, id, vecSet([]float32{1, float32(j)}, nil))
			}
		}(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = idx.Search(ctx, core.SearchRequest{Query: vecSet([]float32{1, 0}, nil), TopK: 10})
			}
		}()
	}
	wg.Wait()

	if idx.Stats().Live != 1+8*50 {
		t.Errorf("并发写入后条目数不符: %+v", idx.Stats())
	}
}
