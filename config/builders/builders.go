// Package builders 注册可由纯配置构建的内置 Node。
// 依赖存储或索引的节点（召回扇出、多样性重排等）携带运行期依赖，
// 由装配代码直接构造后插入流水线。
package builders

import (
	"fmt"

	"github.com/rushteam/swipekit/config"
	"github.com/rushteam/swipekit/filter"
	"github.com/rushteam/swipekit/pipeline"
	"github.com/rushteam/swipekit/pkg/conv"
	"github.com/rushteam/swipekit/rank"
	"github.com/rushteam/swipekit/rerank"
)

func init() {
	config.Register("rank.hybrid", BuildHybridNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("filter.expr", BuildExprFilterNode)
	config.Register("filter.blacklist", BuildBlacklistFilterNode)
}

// BuildHybridNode 构建混合排序节点。
// 配置：weights: {vector: 0.4, collaborative: 0.3, content: 0.3}
func BuildHybridNode(cfg map[string]any) (pipeline.Node, error) {
	raw, ok := cfg["weights"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("weights not found")
	}
	weights := make(map[string]float64, len(raw))
	for method, v := range raw {
		w, ok := conv.ToFloat64(v)
		if !ok {
			return nil, fmt.Errorf("invalid weight for %s: %v", method, v)
		}
		weights[method] = w
	}
	if err := rank.ValidateWeights(weights); err != nil {
		return nil, err
	}
	return &rank.HybridNode{Weights: weights}, nil
}

// BuildTopNNode 构建截断节点。配置：n: 10
func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}

// BuildExprFilterNode 构建规则过滤节点。配置：expr: 'item.score < 0.2'
func BuildExprFilterNode(cfg map[string]any) (pipeline.Node, error) {
	expr := conv.ConfigGet(cfg, "expr", "")
	if expr == "" {
		return nil, fmt.Errorf("expr not found")
	}
	return &filter.FilterNode{Filters: []filter.Filter{&filter.ExprFilter{Expr: expr}}}, nil
}

// BuildBlacklistFilterNode 构建黑名单过滤节点。配置：item_ids: [p1, p2]
func BuildBlacklistFilterNode(cfg map[string]any) (pipeline.Node, error) {
	ids := conv.ToStringSlice(cfg["item_ids"])
	if len(ids) == 0 {
		return nil, fmt.Errorf("item_ids not found")
	}
	return &filter.FilterNode{Filters: []filter.Filter{&filter.BlacklistFilter{ItemIDs: ids}}}, nil
}
