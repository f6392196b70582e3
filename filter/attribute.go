package filter

import (
	"context"

	"github.com/rushteam/swipekit/core"
)

// AttributeFilter 按请求指定的类目/品牌收敛候选。
// 支持属性过滤的召回源已在源头收敛，此处兜底拦截不带属性感知的召回结果。
// 条目缺失属性信息时视为不匹配。
type AttributeFilter struct{}

var _ Filter = (*AttributeFilter)(nil)

func (f *AttributeFilter) Name() string { return "filter.attribute" }

func (f *AttributeFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if category := rctx.ParamString("category"); category != "" {
		if item.MetaString("category") != category {
			return true, nil
		}
	}
	if brandID := rctx.ParamString("brand_id"); brandID != "" {
		if item.MetaString("brand_id") != brandID {
			return true, nil
		}
	}
	return false, nil
}
