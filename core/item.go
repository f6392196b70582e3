package core

import (
	"time"

	"github.com/rushteam/swipekit/pkg/utils"
)

// Item 表示推荐流水线中的候选条目。
// 召回阶段产出 Item，后续节点只做打分 / 过滤 / 重排，不再新增字段语义。
type Item struct {
	// ID 为商品 ID（与 Product.ID 一致）。
	ID string
	// Score 为当前阶段的得分；各阶段可覆写。
	Score float64
	// Labels 记录条目途经的来源与策略，用于可解释性。
	Labels []utils.Label
	// Meta 存放节点间传递的附加数据（如类目、品牌、分方法得分）。
	Meta map[string]any
}

// NewItem 创建候选条目。
func NewItem(id string) *Item {
	return &Item{ID: id, Meta: make(map[string]any)}
}

// WithScore 设置得分并返回自身，便于链式构造。
func (it *Item) WithScore(score float64) *Item {
	it.Score = score
	return it
}

// AddLabel 追加一个标签；同名标签按 utils.MergeLabel 的规则合并。
func (it *Item) AddLabel(value, source string) {
	it.Labels = utils.MergeLabel(it.Labels, utils.Label{Value: value, Source: source})
}

// GetMeta 读取附加数据；Meta 未初始化时安全返回。
func (it *Item) GetMeta(key string) (any, bool) {
	if it.Meta == nil {
		return nil, false
	}
	v, ok := it.Meta[key]
	return v, ok
}

// SetMeta 写入附加数据。
func (it *Item) SetMeta(key string, value any) {
	if it.Meta == nil {
		it.Meta = make(map[string]any)
	}
	it.Meta[key] = value
}

// MetaString 读取字符串类型的附加数据，类型不符时返回空串。
func (it *Item) MetaString(key string) string {
	if v, ok := it.GetMeta(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Product 表示目录中的一件商品。
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	BrandID     string
	ImageURL    string
	// Vectors 为该商品已就绪的各模态向量；未向量化时为空。
	Vectors VectorSet
}

// Action 表示用户对商品的滑动动作。
type Action string

const (
	ActionLike    Action = "like"
	ActionDislike Action = "dislike"
)

// Interaction 表示一次用户与商品的交互记录。
type Interaction struct {
	UserID    string
	ItemID    string
	Action    Action
	CreatedAt time.Time
}

// IsLike 判断该交互是否为正反馈。
func (i Interaction) IsLike() bool { return i.Action == ActionLike }
