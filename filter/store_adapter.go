package filter

import (
	"context"
	"encoding/json"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pkg/conv"
)

// StoreAdapter 把 core.Store 适配为过滤器所需的名单读取接口。
// 名单既可能以 []string 直接写入（内存存储），也可能是 JSON 编码的字符串（Redis）。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

var _ BlacklistStore = (*StoreAdapter)(nil)

// GetBlacklist 从存储读取黑名单。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if ids := conv.ToStringSlice(data); ids != nil {
		return ids, nil
	}
	if raw, ok := data.(string); ok {
		var ids []string
		if err := json.Unmarshal([]byte(raw), &ids); err == nil {
			return ids, nil
		}
	}
	if raw, ok := data.([]byte); ok {
		var ids []string
		if err := json.Unmarshal(raw, &ids); err == nil {
			return ids, nil
		}
	}
	return nil, nil
}
