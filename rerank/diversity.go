// Package rerank 提供排序结果上的多样性调整与截断节点。
package rerank

import (
	"context"
	"math/rand"
	"sort"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pipeline"
)

// DiversityNode 依据用户近期滑动的类目/品牌分布调整候选得分，
// 并对单一类目/品牌的占比做硬性上限。
//
// 得分调整：
//   - 近期高频类目/品牌施加惩罚：freq_cat×0.5 + freq_brand×0.3
//   - 未出现过的类目 +0.2、品牌 +0.1 作为探索奖励
//   - 调整量乘 DiversityBoost 叠加到原始得分，再叠加 Randomness 幅度的抖动
//   - 结果收敛到 [0, 1]
//
// 占比上限：调整后按得分贪心选取，每类目/品牌最多 MaxPerCategory/MaxPerBrand 条；
// 候选不足时由被上限挤掉的条目回填，回填条目带 diversity_backfill 标签。
type DiversityNode struct {
	Interactions core.InteractionStore
	Catalog      core.CatalogStore

	RecentWindow   int     // 参与统计的近期滑动条数
	DiversityBoost float64 // 调整量系数
	Randomness     float64 // 抖动幅度，0 表示完全确定
	MaxPerCategory int
	MaxPerBrand    int
	Rand           *rand.Rand // 为 nil 时使用全局随机源
}

var _ pipeline.Node = (*DiversityNode)(nil)

// NewDiversityNode 创建带默认参数的多样性节点。
func NewDiversityNode(interactions core.InteractionStore, catalog core.CatalogStore) *DiversityNode {
	return &DiversityNode{
		Interactions:   interactions,
		Catalog:        catalog,
		RecentWindow:   20,
		DiversityBoost: 0.3,
		Randomness:     0.2,
		MaxPerCategory: 2,
		MaxPerBrand:    2,
	}
}

func (n *DiversityNode) Name() string        { return "rerank.diversity" }
func (n *DiversityNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *DiversityNode) randFloat() float64 {
	if n.Rand != nil {
		return n.Rand.Float64()
	}
	return rand.Float64()
}

func (n *DiversityNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	catFreq, brandFreq, err := n.recentFrequency(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		category := it.MetaString("category")
		brand := it.MetaString("brand_id")

		var adjust float64
		adjust -= catFreq[category] * 0.5
		adjust -= brandFreq[brand] * 0.3
		if category != "" {
			if _, seen := catFreq[category]; !seen {
				adjust += 0.2
			}
		}
		if brand != "" {
			if _, seen := brandFreq[brand]; !seen {
				adjust += 0.1
			}
		}

		score := it.Score + adjust*n.DiversityBoost
		if n.Randomness > 0 {
			score += (n.randFloat()*2 - 1) * n.Randomness
		}
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		it.Score = score
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})

	return n.applyCaps(items, rctx.Limit), nil
}

// recentFrequency 统计近期滑动商品的类目/品牌出现占比（0~1）。
func (n *DiversityNode) recentFrequency(ctx context.Context, userID string) (map[string]float64, map[string]float64, error) {
	window := n.RecentWindow
	if window <= 0 {
		window = 20
	}
	recent, err := n.Interactions.RecentInteractions(ctx, userID, window)
	if err != nil {
		return nil, nil, core.WrapDomainError("rerank", core.ErrCodeDependencyFailure, "读取近期滑动失败", err)
	}
	catFreq := make(map[string]float64)
	brandFreq := make(map[string]float64)
	if len(recent) == 0 {
		return catFreq, brandFreq, nil
	}

	ids := make([]string, 0, len(recent))
	for _, it := range recent {
		ids = append(ids, it.ItemID)
	}
	products, err := n.Catalog.BatchGetProducts(ctx, ids)
	if err != nil {
		return nil, nil, core.WrapDomainError("rerank", core.ErrCodeDependencyFailure, "读取近期商品属性失败", err)
	}
	total := float64(len(recent))
	for _, it := range recent {
		p, ok := products[it.ItemID]
		if !ok {
			continue
		}
		if p.Category != "" {
			catFreq[p.Category] += 1 / total
		}
		if p.BrandID != "" {
			brandFreq[p.BrandID] += 1 / total
		}
	}
	return catFreq, brandFreq, nil
}

// applyCaps 按类目/品牌上限贪心选取，不足 limit 时回填被挤掉的条目。
func (n *DiversityNode) applyCaps(items []*core.Item, limit int) []*core.Item {
	maxCat := n.MaxPerCategory
	maxBrand := n.MaxPerBrand
	if maxCat <= 0 && maxBrand <= 0 {
		return items
	}
	if limit <= 0 {
		limit = len(items)
	}

	catCount := make(map[string]int)
	brandCount := make(map[string]int)
	picked := make([]*core.Item, 0, len(items))
	overflow := make([]*core.Item, 0)

	for _, it := range items {
		category := it.MetaString("category")
		brand := it.MetaString("brand_id")
		if maxCat > 0 && category != "" && catCount[category] >= maxCat {
			overflow = append(overflow, it)
			continue
		}
		if maxBrand > 0 && brand != "" && brandCount[brand] >= maxBrand {
			overflow = append(overflow, it)
			continue
		}
		if category != "" {
			catCount[category]++
		}
		if brand != "" {
			brandCount[brand]++
		}
		picked = append(picked, it)
	}

	// 候选不足时放宽上限回填，保证结果数量优先于多样性
	for _, it := range overflow {
		if len(picked) >= limit {
			break
		}
		it.AddLabel("diversity_backfill", "rerank")
		picked = append(picked, it)
	}
	return picked
}
