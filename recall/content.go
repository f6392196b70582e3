package recall

import (
	"context"
	"math/rand"
	"sort"

	"github.com/rushteam/swipekit/core"
)

// 内容召回的属性匹配档位，归一化后落在 {1/3, 2/3, 1}。
const (
	contentScoreCategory = 3.0 // 命中喜欢的类目
	contentScoreBrand    = 2.0 // 命中喜欢的品牌
	contentScoreBase     = 1.0 // 无属性命中的兜底档
	contentScoreMax      = 3.0
)

// ContentSource 基于类目/品牌属性匹配的召回源。
// 从点赞历史归纳喜欢的类目与品牌，按档位给全量目录打分；
// 点踩过的类目与品牌直接排除，不参与打分。
type ContentSource struct {
	Catalog      core.CatalogStore
	Interactions core.InteractionStore

	// Multiplier 为相对 rctx.Limit 的扩召回倍数，默认 3。
	Multiplier int
	// Rand 用于同分随机打散；为 nil 时使用全局随机源。
	Rand *rand.Rand
}

var _ Source = (*ContentSource)(nil)

func (s *ContentSource) Name() string { return MethodContent }

func (s *ContentSource) multiplier() int {
	if s.Multiplier > 0 {
		return s.Multiplier
	}
	return 3
}

func (s *ContentSource) randFloat() float64 {
	if s.Rand != nil {
		return s.Rand.Float64()
	}
	return rand.Float64()
}

func (s *ContentSource) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	likedIDs, err := s.Interactions.LikedItemIDs(ctx, rctx.UserID)
	if err != nil {
		return nil, core.WrapDomainError("recall", core.ErrCodeDependencyFailure, "读取点赞集合失败", err)
	}
	if len(likedIDs) == 0 {
		return nil, nil // 无点赞历史时没有内容信号
	}
	swipedIDs, err := s.Interactions.SwipedItemIDs(ctx, rctx.UserID)
	if err != nil {
		return nil, core.WrapDomainError("recall", core.ErrCodeDependencyFailure, "读取滑动集合失败", err)
	}

	liked := toSet(likedIDs)
	dislikedIDs := make([]string, 0, len(swipedIDs))
	for _, id := range swipedIDs {
		if _, ok := liked[id]; !ok {
			dislikedIDs = append(dislikedIDs, id)
		}
	}

	profile, err := s.buildProfile(ctx, likedIDs, dislikedIDs)
	if err != nil {
		return nil, err
	}

	products, err := s.Catalog.ListProducts(ctx)
	if err != nil {
		return nil, core.WrapDomainError("recall", core.ErrCodeDependencyFailure, "目录扫描失败", err)
	}

	exclude := excludeSet(rctx)
	category := rctx.ParamString("category")
	brandID := rctx.ParamString("brand_id")

	type scored struct {
		item *core.Item
		tie  float64
	}
	candidates := make([]scored, 0, len(products))
	for _, p := range products {
		if _, excluded := exclude[p.ID]; excluded {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if brandID != "" && p.BrandID != brandID {
			continue
		}
		// 点踩过的类目/品牌直接出局
		if _, ok := profile.dislikedCats[p.Category]; ok {
			continue
		}
		if _, ok := profile.dislikedBrands[p.BrandID]; ok {
			continue
		}

		score := contentScoreBase
		if _, ok := profile.likedCats[p.Category]; ok {
			score = contentScoreCategory
		} else if _, ok := profile.likedBrands[p.BrandID]; ok {
			score = contentScoreBrand
		}
		candidates = append(candidates, scored{
			item: core.NewItem(p.ID).WithScore(score / contentScoreMax),
			tie:  s.randFloat(),
		})
	}

	// 同分随机打散，避免目录顺序固化推荐结果
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].item.Score != candidates[j].item.Score {
			return candidates[i].item.Score > candidates[j].item.Score
		}
		return candidates[i].tie < candidates[j].tie
	})

	limit := rctx.Limit * s.multiplier()
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	items := make([]*core.Item, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, c.item)
	}
	return items, nil
}

type contentProfile struct {
	likedCats      map[string]struct{}
	likedBrands    map[string]struct{}
	dislikedCats   map[string]struct{}
	dislikedBrands map[string]struct{}
}

// buildProfile 从点赞/点踩商品归纳属性偏好。
func (s *ContentSource) buildProfile(ctx context.Context, likedIDs, dislikedIDs []string) (*contentProfile, error) {
	all := make([]string, 0, len(likedIDs)+len(dislikedIDs))
	all = append(all, likedIDs...)
	all = append(all, dislikedIDs...)
	products, err := s.Catalog.BatchGetProducts(ctx, all)
	if err != nil {
		return nil, core.WrapDomainError("recall", core.ErrCodeDependencyFailure, "读取商品属性失败", err)
	}

	profile := &contentProfile{
		likedCats:      make(map[string]struct{}),
		likedBrands:    make(map[string]struct{}),
		dislikedCats:   make(map[string]struct{}),
		dislikedBrands: make(map[string]struct{}),
	}
	for _, id := range likedIDs {
		if p, ok := products[id]; ok {
			if p.Category != "" {
				profile.likedCats[p.Category] = struct{}{}
			}
			if p.BrandID != "" {
				profile.likedBrands[p.BrandID] = struct{}{}
			}
		}
	}
	for _, id := range dislikedIDs {
		if p, ok := products[id]; ok {
			if p.Category != "" {
				profile.dislikedCats[p.Category] = struct{}{}
			}
			if p.BrandID != "" {
				profile.dislikedBrands[p.BrandID] = struct{}{}
			}
		}
	}
	return profile, nil
}
