// Package rank 提供候选融合与排序节点。
package rank

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pipeline"
	"github.com/rushteam/swipekit/pkg/utils"
)

// WeightTolerance 为权重和校验的容差。
const WeightTolerance = 0.01

// ValidateWeights 校验方法权重：均非负且和为 1（容差 ±0.01）。
func ValidateWeights(weights map[string]float64) error {
	var sum float64
	for method, w := range weights {
		if w < 0 {
			return core.NewDomainError("rank", core.ErrCodeInvalidInput,
				fmt.Sprintf("方法 %s 的权重不能为负: %v", method, w))
		}
		sum += w
	}
	if math.Abs(sum-1) > WeightTolerance {
		return core.NewDomainError("rank", core.ErrCodeInvalidInput,
			fmt.Sprintf("方法权重之和必须为 1, 实际 %v", sum))
	}
	return nil
}

// HybridNode 把多路召回的重复候选按方法权重融合为单一得分。
//
// 同一商品被多个方法召回时，最终得分为各方法得分的加权平均，
// 分母只计入实际给出得分的方法权重：Σ(w_m × s_m) / Σ(w_m)。
// 只被单一方法召回的商品不因其他方法缺席而受罚。
type HybridNode struct {
	// Weights 为各方法（vector/collaborative/content/random）的默认权重；
	// 请求可通过 rctx.Params["method_weights"] 覆盖。
	Weights map[string]float64
}

var _ pipeline.Node = (*HybridNode)(nil)

func (n *HybridNode) Name() string        { return "rank.hybrid" }
func (n *HybridNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *HybridNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	weights := n.weights(rctx)
	if err := ValidateWeights(weights); err != nil {
		return nil, err
	}

	type group struct {
		item    *core.Item
		scores  map[string]float64 // method -> score
		methods []string
	}
	groups := make(map[string]*group, len(items))
	order := make([]string, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		method := recallMethod(it)
		g, ok := groups[it.ID]
		if !ok {
			g = &group{
				item:   core.NewItem(it.ID),
				scores: make(map[string]float64, 4),
			}
			groups[it.ID] = g
			order = append(order, it.ID)
		}
		// 合并重复候选的标签与属性
		for _, l := range it.Labels {
			g.item.Labels = utils.MergeLabel(g.item.Labels, l)
		}
		for k, v := range it.Meta {
			g.item.SetMeta(k, v)
		}
		if _, seen := g.scores[method]; !seen {
			g.methods = append(g.methods, method)
		}
		// 同一方法给出多次得分时保留较高者
		if s, seen := g.scores[method]; !seen || it.Score > s {
			g.scores[method] = it.Score
		}
	}

	out := make([]*core.Item, 0, len(order))
	for _, id := range order {
		g := groups[id]
		var weightedSum, totalWeight float64
		for method, score := range g.scores {
			w, ok := weights[method]
			if !ok || w <= 0 {
				continue
			}
			weightedSum += score * w
			totalWeight += w
		}
		if totalWeight == 0 {
			continue // 全部方法权重为 0，该候选出局
		}
		g.item.Score = weightedSum / totalWeight
		g.item.SetMeta("method_scores", g.scores)
		out = append(out, g.item)
	}

	// 同分时多方法共识优先，再按 ID 保证确定性
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		mi := len(methodScores(out[i]))
		mj := len(methodScores(out[j]))
		if mi != mj {
			return mi > mj
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// weights 返回本次请求生效的方法权重。
func (n *HybridNode) weights(rctx *core.RecommendContext) map[string]float64 {
	if rctx != nil {
		if v, ok := rctx.GetParam("method_weights"); ok {
			if w, ok := v.(map[string]float64); ok && len(w) > 0 {
				return w
			}
		}
	}
	return n.Weights
}

// recallMethod 返回条目的召回方法；多路候选在进入本节点前每条只带一个方法标签。
func recallMethod(it *core.Item) string {
	values := utils.LabelValues(it.Labels, "recall")
	if len(values) > 0 {
		return values[0]
	}
	return ""
}

// methodScores 读取融合明细。
func methodScores(it *core.Item) map[string]float64 {
	if v, ok := it.GetMeta("method_scores"); ok {
		if m, ok := v.(map[string]float64); ok {
			return m
		}
	}
	return nil
}
