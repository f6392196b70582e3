package core

import "time"

// RecommendContext 贯穿一次推荐请求的上下文。
// 流水线各节点只读 UserID / Limit / Params，节点间的中间状态走 Item.Meta。
type RecommendContext struct {
	// UserID 为本次请求的用户。
	UserID string
	// Limit 为期望返回的条目数。
	Limit int
	// Params 携带请求级参数（排除集合、类目过滤、方法权重等）。
	Params map[string]any
	// StartTime 为请求开始时间，交由各节点做超时与时间加权判断。
	StartTime time.Time
}

// NewRecommendContext 创建推荐上下文。
func NewRecommendContext(userID string, limit int) *RecommendContext {
	return &RecommendContext{
		UserID:    userID,
		Limit:     limit,
		Params:    make(map[string]any),
		StartTime: time.Now(),
	}
}

// SetParam 写入请求级参数。
func (rc *RecommendContext) SetParam(key string, value any) {
	if rc.Params == nil {
		rc.Params = make(map[string]any)
	}
	rc.Params[key] = value
}

// GetParam 读取请求级参数。
func (rc *RecommendContext) GetParam(key string) (any, bool) {
	if rc.Params == nil {
		return nil, false
	}
	v, ok := rc.Params[key]
	return v, ok
}

// ParamString 读取字符串参数，缺失或类型不符时返回空串。
func (rc *RecommendContext) ParamString(key string) string {
	if v, ok := rc.GetParam(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ParamStringSet 读取字符串集合参数（如排除列表）。
func (rc *RecommendContext) ParamStringSet(key string) map[string]struct{} {
	v, ok := rc.GetParam(key)
	if !ok {
		return nil
	}
	if set, ok := v.(map[string]struct{}); ok {
		return set
	}
	if list, ok := v.([]string); ok {
		set := make(map[string]struct{}, len(list))
		for _, s := range list {
			set[s] = struct{}{}
		}
		return set
	}
	return nil
}
