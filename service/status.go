package service

import (
	"context"

	"github.com/rushteam/swipekit/cache"
	"github.com/rushteam/swipekit/core"
)

// EnqueueVectorization 为指定商品创建向量化任务，返回任务 ID。
// 引擎未配置编码器时返回 NOT_SUPPORTED。
func (e *Engine) EnqueueVectorization(ctx context.Context, ids []string, priority core.JobPriority, force bool) (string, error) {
	if e.queue == nil {
		return "", core.NewDomainError("service", core.ErrCodeNotSupported, "未配置编码器, 向量化不可用")
	}
	return e.queue.Enqueue(ids, priority, force)
}

// EnqueueMissingVectors 为目录中向量不完整的商品补建向量化任务。
func (e *Engine) EnqueueMissingVectors(ctx context.Context) (string, error) {
	if e.queue == nil {
		return "", core.NewDomainError("service", core.ErrCodeNotSupported, "未配置编码器, 向量化不可用")
	}
	return e.queue.EnqueueMissing(ctx)
}

// JobStatus 返回向量化任务状态。
func (e *Engine) JobStatus(jobID string) (*core.Job, error) {
	if e.queue == nil {
		return nil, core.NewDomainError("service", core.ErrCodeNotSupported, "未配置编码器, 向量化不可用")
	}
	return e.queue.Status(jobID)
}

// VectorizationStatus 为目录向量化进度的汇总。
type VectorizationStatus struct {
	TotalProducts int             `json:"total_products"`
	Complete      int             `json:"complete"`
	Missing       int             `json:"missing"`
	Index         core.IndexStats `json:"index"`
}

// GetVectorizationStatus 统计目录的向量化进度与索引状态。
func (e *Engine) GetVectorizationStatus(ctx context.Context) (*VectorizationStatus, error) {
	products, err := e.catalog.ListProducts(ctx)
	if err != nil {
		return nil, core.WrapDomainError("service", core.ErrCodeDependencyFailure, "读取目录失败", err)
	}
	status := &VectorizationStatus{
		TotalProducts: len(products),
		Index:         e.index.Stats(),
	}
	for _, p := range products {
		if p.Vectors.Complete() {
			status.Complete++
		} else {
			status.Missing++
		}
	}
	return status, nil
}

// RecommendationStatus 为单个用户的推荐就绪度报告。
type RecommendationStatus struct {
	UserID string `json:"user_id"`
	Likes  int    `json:"likes"`
	Swipes int    `json:"swipes"`
	// MethodsReady 标记各召回方法当前是否具备信号。
	MethodsReady map[string]bool `json:"methods_ready"`
	ResultCache  cache.Stats     `json:"result_cache"`
	PrefCache    cache.Stats     `json:"pref_cache"`
}

// GetRecommendationStatus 报告用户的信号储备与各召回方法的可用性。
func (e *Engine) GetRecommendationStatus(ctx context.Context, userID string) (*RecommendationStatus, error) {
	if userID == "" {
		return nil, core.NewDomainError("service", core.ErrCodeInvalidInput, "用户 ID 为空")
	}
	likes, err := e.interactions.LikedItemIDs(ctx, userID)
	if err != nil {
		return nil, core.WrapDomainError("service", core.ErrCodeDependencyFailure, "读取点赞集合失败", err)
	}
	swipes, err := e.interactions.SwipedItemIDs(ctx, userID)
	if err != nil {
		return nil, core.WrapDomainError("service", core.ErrCodeDependencyFailure, "读取滑动集合失败", err)
	}

	hasLikes := len(likes) > 0
	indexReady := e.index.Stats().Live > 0
	return &RecommendationStatus{
		UserID: userID,
		Likes:  len(likes),
		Swipes: len(swipes),
		MethodsReady: map[string]bool{
			"vector":        hasLikes && indexReady,
			"collaborative": hasLikes,
			"content":       hasLikes,
			"random":        true,
		},
		ResultCache: e.resultCache.Stats(),
		PrefCache:   e.prefCache.Stats(),
	}, nil
}
