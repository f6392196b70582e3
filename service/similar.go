package service

import (
	"context"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/recall"
)

// SimilarRequest 为相似商品 / 文本检索请求。
type SimilarRequest struct {
	// Limit <= 0 时使用引擎默认值。
	Limit    int
	Category string
	BrandID  string
	// ExcludeIDs 为额外排除的商品。
	ExcludeIDs []string
}

// GetSimilarItems 返回与指定商品最相似的商品。
// 以该商品自身的向量为查询，查询商品本身始终被排除。
func (e *Engine) GetSimilarItems(ctx context.Context, itemID string, req SimilarRequest) (*Result, error) {
	if itemID == "" {
		return nil, core.NewDomainError("service", core.ErrCodeInvalidInput, "商品 ID 为空")
	}
	product, err := e.catalog.GetProduct(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if len(product.Vectors) == 0 {
		return nil, core.NewDomainError("service", core.ErrCodeUnavailable, "商品尚未向量化: "+itemID)
	}
	return e.vectorQuery(ctx, product.Vectors, req, append(req.ExcludeIDs, itemID))
}

// SearchByText 以自然语言检索商品：文本经编码器转为向量后走文本模态检索。
// 引擎未配置编码器时返回 NOT_SUPPORTED。
func (e *Engine) SearchByText(ctx context.Context, query string, req SimilarRequest) (*Result, error) {
	if query == "" {
		return nil, core.NewDomainError("service", core.ErrCodeInvalidInput, "查询文本为空")
	}
	if e.embedder == nil {
		return nil, core.NewDomainError("service", core.ErrCodeNotSupported, "未配置编码器, 文本检索不可用")
	}
	data, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, core.WrapDomainError("service", core.ErrCodeDependencyFailure, "查询文本编码失败", err)
	}
	queryVec := core.VectorSet{
		core.ModalityText: {Modality: core.ModalityText, Data: data},
	}
	return e.vectorQuery(ctx, queryVec, req, req.ExcludeIDs)
}

// vectorQuery 以给定向量集合为查询执行一次检索，复用向量召回源的降级逻辑。
func (e *Engine) vectorQuery(ctx context.Context, query core.VectorSet, req SimilarRequest, exclude []string) (*Result, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = e.cfg.defaultLimit()
	}

	rctx := core.NewRecommendContext("", limit)
	if len(exclude) > 0 {
		set := make(map[string]struct{}, len(exclude))
		for _, id := range exclude {
			set[id] = struct{}{}
		}
		rctx.SetParam("exclude_ids", set)
	}
	if req.Category != "" {
		rctx.SetParam("category", req.Category)
	}
	if req.BrandID != "" {
		rctx.SetParam("brand_id", req.BrandID)
	}

	source := &recall.VectorSource{
		Index: e.index,
		Preference: func(context.Context, string) (core.VectorSet, error) {
			return query, nil
		},
		Catalog:    e.catalog,
		Multiplier: 1,
	}
	items, err := source.Recall(ctx, rctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		it.AddLabel(recall.MethodVector, "recall")
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return e.toResult(items, TierHybrid), nil
}
