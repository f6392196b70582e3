package recall

import (
	"context"
	"sort"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/vector"
)

// PreferenceFn 提供用户的偏好向量（通常由 prefs.Aggregator 经缓存包装后注入）。
type PreferenceFn func(ctx context.Context, userID string) (core.VectorSet, error)

// VectorSource 基于用户偏好向量做相似检索的召回源。
//
// 索引不可用（冷启动、模态缺失）时退化为目录暴力扫描；
// 用户没有偏好信号时返回空候选，不报错。
type VectorSource struct {
	Index      core.VectorIndex
	Preference PreferenceFn
	// Catalog 为暴力扫描的兜底数据源，为 nil 时不做兜底。
	Catalog core.CatalogStore
	Weights map[core.Modality]float64
	// Multiplier 为相对 rctx.Limit 的扩召回倍数，默认 3。
	Multiplier int
}

var _ Source = (*VectorSource)(nil)

func (s *VectorSource) Name() string { return MethodVector }

func (s *VectorSource) multiplier() int {
	if s.Multiplier > 0 {
		return s.Multiplier
	}
	return 3
}

func (s *VectorSource) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	prefs, err := s.Preference(ctx, rctx.UserID)
	if err != nil {
		if core.IsUnavailable(err) {
			return nil, nil // 无偏好信号，交给其余召回源
		}
		return nil, err
	}

	req := core.SearchRequest{
		Query:    prefs,
		TopK:     rctx.Limit * s.multiplier(),
		Weights:  s.Weights,
		Exclude:  excludeSet(rctx),
		Category: rctx.ParamString("category"),
		BrandID:  rctx.ParamString("brand_id"),
	}
	if req.TopK <= 0 {
		req.TopK = 10 * s.multiplier()
	}

	hits, err := s.Index.Search(ctx, req)
	if err != nil {
		if core.IsUnavailable(err) && s.Catalog != nil {
			return s.bruteForce(ctx, rctx, prefs, req)
		}
		return nil, err
	}
	return s.toItems(hits, "ann"), nil
}

// bruteForce 索引不可用时的兜底：全量扫描目录逐个算余弦。
func (s *VectorSource) bruteForce(ctx context.Context, rctx *core.RecommendContext, prefs core.VectorSet, req core.SearchRequest) ([]*core.Item, error) {
	products, err := s.Catalog.ListProducts(ctx)
	if err != nil {
		return nil, core.WrapDomainError("recall", core.ErrCodeDependencyFailure, "目录扫描失败", err)
	}
	hits := make([]core.SearchHit, 0, len(products))
	for _, p := range products {
		if _, excluded := req.Exclude[p.ID]; excluded {
			continue
		}
		if req.Category != "" && p.Category != req.Category {
			continue
		}
		if req.BrandID != "" && p.BrandID != req.BrandID {
			continue
		}
		scores := make(map[core.Modality]float64)
		for m, q := range prefs {
			if !p.Vectors.Has(m) {
				continue
			}
			if sim, ok := vector.Cosine(q.Data, p.Vectors[m].Data); ok {
				scores[m] = sim
			}
		}
		fused, ok := vector.Fuse(scores, req.Weights)
		if !ok {
			continue
		}
		hits = append(hits, core.SearchHit{ID: p.ID, Score: fused, ModalityScores: scores})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > req.TopK {
		hits = hits[:req.TopK]
	}
	return s.toItems(hits, "brute_force"), nil
}

// toItems 把检索命中转为候选条目，相似度收敛到 [0, 1] 参与后续融合。
func (s *VectorSource) toItems(hits []core.SearchHit, backend string) []*core.Item {
	items := make([]*core.Item, 0, len(hits))
	for _, h := range hits {
		it := core.NewItem(h.ID).WithScore(clamp01(h.Score))
		it.AddLabel(backend, "recall_backend")
		items = append(items, it)
	}
	return items
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
