package pipeline

import (
	"context"

	"github.com/rushteam/swipekit/core"
)

// Pipeline 把一次推荐请求拆成可组合的 Node 链，按序执行。
// 任一节点报错即中断整条链，由上层决定降级策略。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// Run 依次执行各节点。items 为初始候选（通常为空，由召回节点产出）。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
