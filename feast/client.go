// Package feast 对接 Feast Feature Store，把在线特征暴露为条目属性服务。
package feast

import "context"

// Client 是 Feast 在线特征的客户端抽象。
type Client interface {
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)
	Close() error
}

// GetOnlineFeaturesRequest 为在线特征请求。
type GetOnlineFeaturesRequest struct {
	// Features 为特征名列表，如 ["product:category", "product:brand_id"]。
	Features []string
	// EntityRows 为实体行，如 [{"product_id": "p1"}]。
	EntityRows []map[string]any
	// Project 为空时使用客户端默认项目。
	Project string
}

// FeatureVector 为单个实体行的特征取值。
type FeatureVector struct {
	Values    map[string]any
	EntityRow map[string]any
}

// GetOnlineFeaturesResponse 为在线特征响应，行序与请求的 EntityRows 一致。
type GetOnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}
