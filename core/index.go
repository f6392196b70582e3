package core

import "context"

// ErrIndexUnavailable 表示向量索引中没有可检索的数据（冷启动或对应模态缺失）。
// 调用方应捕获该错误并降级到非向量召回。
var ErrIndexUnavailable = NewDomainError("vector_index", ErrCodeUnavailable, "向量索引暂不可用")

// SearchRequest 为一次相似检索请求。
type SearchRequest struct {
	// Query 为各模态的查询向量；缺失的模态不参与检索。
	Query VectorSet
	// TopK 为期望返回的条目数。
	TopK int
	// Weights 为按模态的融合权重；为空时使用默认权重。
	Weights map[Modality]float64
	// Exclude 为需要排除的商品 ID 集合。
	Exclude map[string]struct{}
	// Category / BrandID 非空时按商品属性过滤候选。
	Category string
	BrandID  string
}

// SearchHit 为检索命中的一条结果。
type SearchHit struct {
	ID string
	// Score 为融合后的余弦相似度，范围 [-1, 1]，已归一化向量下通常落在 [0, 1]。
	Score float64
	// ModalityScores 记录各模态各自的相似度，用于可解释性。
	ModalityScores map[Modality]float64
}

// IndexStats 为索引状态快照。
type IndexStats struct {
	// Buckets 按 (模态, 维度) 统计在册向量数。
	Buckets map[string]int
	// Live 为未被删除的向量总数。
	Live int
	// Tombstones 为已标记删除但尚未重建回收的向量数。
	Tombstones int
}

// VectorIndex 为向量索引抽象。
//
// 实现约定：
//   - Insert 覆盖同 ID 旧向量（旧条目转为墓碑）
//   - Remove 仅做标记删除，空间由 Rebuild 回收
//   - Search 在无可用数据时返回 ErrIndexUnavailable
type VectorIndex interface {
	Insert(ctx context.Context, id string, vectors VectorSet) error
	Search(ctx context.Context, req SearchRequest) ([]SearchHit, error)
	Remove(ctx context.Context, id string) error
	Rebuild(ctx context.Context) error
	Stats() IndexStats
}
