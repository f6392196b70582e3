package service

// Recommendation 为单条推荐结果。
type Recommendation struct {
	ItemID string `json:"item_id"`
	// Score 为最终得分，范围 [0, 1]。
	Score float64 `json:"score"`
	// Reason 为面向用户的推荐理由。
	Reason string `json:"reason"`
	// MethodsUsed 为召回该条目的方法列表。
	MethodsUsed []string `json:"methods_used,omitempty"`
	// MethodScores 为各方法的原始得分明细。
	MethodScores map[string]float64 `json:"method_scores,omitempty"`
}

// 结果产出层级，从主链路逐级降级。
const (
	TierHybrid      = "hybrid_pipeline" // 多路召回 + 混合排序主链路
	TierContentOnly = "content_only"    // 仅内容召回
	TierRandom      = "random"          // 随机兜底
)

// Result 为一次推荐请求的完整结果。
type Result struct {
	UserID string           `json:"user_id"`
	Items  []Recommendation `json:"items"`
	// Tier 标识结果出自哪一级链路。
	Tier string `json:"tier"`
	// CacheHit 表示本次结果来自缓存。
	CacheHit bool `json:"cache_hit"`
}
