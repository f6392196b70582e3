// Package feature 提供候选条目的属性补全节点。
package feature

import (
	"context"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pipeline"
)

// EnrichNode 为候选条目补全类目/品牌属性，写入 item.Meta，
// 供后续过滤、多样性与规则表达式消费。
//
// 取数优先级：
//  1. MetaService（特征平台，如 Feast）
//  2. Catalog（商品目录）
//
// MetaService 覆盖不到的条目回落到 Catalog；两者都取不到时条目保持原样。
type EnrichNode struct {
	MetaService core.ItemMetaService
	Catalog     core.CatalogStore
}

var _ pipeline.Node = (*EnrichNode)(nil)

func (n *EnrichNode) Name() string        { return "feature.enrich" }
func (n *EnrichNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *EnrichNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	missing := make([]string, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if it.MetaString("category") == "" || it.MetaString("brand_id") == "" {
			missing = append(missing, it.ID)
		}
	}
	if len(missing) == 0 {
		return items, nil
	}

	metas := make(map[string]core.ItemMeta, len(missing))
	if n.MetaService != nil {
		got, err := n.MetaService.BatchGetItemMeta(ctx, missing)
		if err == nil {
			metas = got
		}
		// 特征平台失败时回落到目录
	}
	if n.Catalog != nil {
		rest := make([]string, 0, len(missing))
		for _, id := range missing {
			if _, ok := metas[id]; !ok {
				rest = append(rest, id)
			}
		}
		if len(rest) > 0 {
			products, err := n.Catalog.BatchGetProducts(ctx, rest)
			if err != nil {
				return nil, core.WrapDomainError("feature", core.ErrCodeDependencyFailure, "读取商品属性失败", err)
			}
			for id, p := range products {
				metas[id] = core.ItemMeta{Category: p.Category, BrandID: p.BrandID}
			}
		}
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		meta, ok := metas[it.ID]
		if !ok {
			continue
		}
		if it.MetaString("category") == "" && meta.Category != "" {
			it.SetMeta("category", meta.Category)
		}
		if it.MetaString("brand_id") == "" && meta.BrandID != "" {
			it.SetMeta("brand_id", meta.BrandID)
		}
	}
	return items, nil
}
