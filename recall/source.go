// Package recall 提供多路召回源及并发扇出节点。
// 每个 Source 独立产出带分候选，融合与排序交给 rank 阶段。
package recall

import (
	"context"

	"github.com/rushteam/swipekit/core"
)

// Source 表示一个可并发扇出的召回源（向量/协同/内容/随机）。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// 召回源对外的方法名，同时作为混合权重的 key 与条目标签值。
const (
	MethodVector        = "vector"
	MethodCollaborative = "collaborative"
	MethodContent       = "content"
	MethodRandom        = "random"
)

// excludeSet 读取请求级排除集合（已滑动商品 + 请求方指定的排除项）。
func excludeSet(rctx *core.RecommendContext) map[string]struct{} {
	if rctx == nil {
		return nil
	}
	return rctx.ParamStringSet("exclude_ids")
}
