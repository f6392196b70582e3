package pipeline

import (
	"context"

	"github.com/rushteam/swipekit/core"
)

// Kind 标记 Node 所处的阶段，便于观测与编排。
type Kind string

const (
	KindRecall      Kind = "recall"      // 召回：产出候选集
	KindFilter      Kind = "filter"      // 过滤：剔除不符合约束的候选
	KindRank        Kind = "rank"        // 排序：对候选打分（混合融合在此阶段）
	KindReRank      Kind = "rerank"      // 重排：多样性调整与截断
	KindPostProcess Kind = "postprocess" // 后处理：属性补全、结果修饰
)

// Node 是推荐流水线的最小组合单元。
// 统一采用"输入 items -> 输出 items"的形态：召回节点忽略输入自行产出，
// 过滤与重排节点在输入上做删改。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
