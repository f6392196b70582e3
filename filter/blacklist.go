package filter

import (
	"context"

	"github.com/rushteam/swipekit/core"
)

// BlacklistFilter 剔除运营下架/屏蔽的商品。
// 名单来源可以是内存列表，也可以是存储中的动态名单（两者取并集）。
type BlacklistFilter struct {
	ItemIDs []string

	Store BlacklistStore
	Key   string
}

// BlacklistStore 提供动态黑名单的读取。
type BlacklistStore interface {
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

var _ Filter = (*BlacklistFilter)(nil)

func (f *BlacklistFilter) Name() string { return "filter.blacklist" }

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	for _, id := range f.ItemIDs {
		if id == item.ID {
			return true, nil
		}
	}
	if f.Store == nil || f.Key == "" {
		return false, nil
	}
	ids, err := f.Store.GetBlacklist(ctx, f.Key)
	if err != nil {
		if core.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	for _, id := range ids {
		if id == item.ID {
			return true, nil
		}
	}
	return false, nil
}
