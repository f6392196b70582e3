package filter

import (
	"context"

	"github.com/rushteam/swipekit/core"
)

// SwipedFilter 剔除用户已滑动过的商品以及请求方显式排除的商品。
// 召回源各自也做排除，此处兜底保证结果不变式成立。
type SwipedFilter struct {
	Interactions core.InteractionStore
}

var _ Filter = (*SwipedFilter)(nil)

// 滑动集合在请求上下文内只查一次，以 Params 私有键缓存。
const swipedSetParam = "_filter_swiped_set"

func (f *SwipedFilter) Name() string { return "filter.swiped" }

func (f *SwipedFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if exclude := rctx.ParamStringSet("exclude_ids"); exclude != nil {
		if _, ok := exclude[item.ID]; ok {
			return true, nil
		}
	}
	if f.Interactions == nil {
		return false, nil
	}
	swiped, err := f.swipedSet(ctx, rctx)
	if err != nil {
		return false, err
	}
	_, ok := swiped[item.ID]
	return ok, nil
}

func (f *SwipedFilter) swipedSet(ctx context.Context, rctx *core.RecommendContext) (map[string]struct{}, error) {
	if set := rctx.ParamStringSet(swipedSetParam); set != nil {
		return set, nil
	}
	ids, err := f.Interactions.SwipedItemIDs(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	rctx.SetParam(swipedSetParam, set)
	return set, nil
}
