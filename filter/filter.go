// Package filter 提供候选过滤节点与可组合的过滤器。
package filter

import (
	"context"

	"github.com/rushteam/swipekit/core"
)

// Filter 判断单个候选是否应该被剔除。
// 返回 true 表示剔除，false 表示保留。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
