package feast

import (
	"context"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pkg/conv"
)

// 条目属性对应的默认特征名与实体键。
const (
	defaultEntityKey       = "product_id"
	defaultCategoryFeature = "product:category"
	defaultBrandFeature    = "product:brand_id"
)

// MetaAdapter 把 Feast 在线特征适配为 core.ItemMetaService，
// 供属性补全节点在目录之外的特征平台上取数。
type MetaAdapter struct {
	Client Client

	// 以下字段为空时使用默认值。
	Project         string
	EntityKey       string
	CategoryFeature string
	BrandFeature    string
}

var _ core.ItemMetaService = (*MetaAdapter)(nil)

func (a *MetaAdapter) entityKey() string {
	if a.EntityKey != "" {
		return a.EntityKey
	}
	return defaultEntityKey
}

func (a *MetaAdapter) categoryFeature() string {
	if a.CategoryFeature != "" {
		return a.CategoryFeature
	}
	return defaultCategoryFeature
}

func (a *MetaAdapter) brandFeature() string {
	if a.BrandFeature != "" {
		return a.BrandFeature
	}
	return defaultBrandFeature
}

// BatchGetItemMeta 批量读取条目的类目与品牌。取不到特征的条目不出现在结果中。
func (a *MetaAdapter) BatchGetItemMeta(ctx context.Context, ids []string) (map[string]core.ItemMeta, error) {
	if len(ids) == 0 {
		return map[string]core.ItemMeta{}, nil
	}
	rows := make([]map[string]any, len(ids))
	for i, id := range ids {
		rows[i] = map[string]any{a.entityKey(): id}
	}
	resp, err := a.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   []string{a.categoryFeature(), a.brandFeature()},
		EntityRows: rows,
		Project:    a.Project,
	})
	if err != nil {
		return nil, err
	}

	result := make(map[string]core.ItemMeta, len(ids))
	for i, fv := range resp.FeatureVectors {
		category, _ := conv.ToString(fv.Values[a.categoryFeature()])
		brand, _ := conv.ToString(fv.Values[a.brandFeature()])
		if category == "" && brand == "" {
			continue
		}
		result[ids[i]] = core.ItemMeta{Category: category, BrandID: brand}
	}
	return result, nil
}
