package core

import "context"

// CatalogStore 为商品目录的读写抽象。
type CatalogStore interface {
	// GetProduct 读取单件商品；不存在时返回 NOT_FOUND。
	GetProduct(ctx context.Context, id string) (*Product, error)
	// BatchGetProducts 批量读取；缺失的 ID 静默跳过。
	BatchGetProducts(ctx context.Context, ids []string) (map[string]*Product, error)
	// ListProducts 返回全部商品（内容召回的遍历来源）。
	ListProducts(ctx context.Context) ([]*Product, error)
	// ListProductsWithVector 返回至少具备指定模态向量的商品。
	ListProductsWithVector(ctx context.Context, m Modality) ([]*Product, error)
	// ListProductIDsMissingVectors 返回向量不完整的商品 ID（补偿入队的来源）。
	ListProductIDsMissingVectors(ctx context.Context) ([]string, error)
	// RandomProducts 随机抽取 n 件商品，排除 exclude。
	RandomProducts(ctx context.Context, n int, exclude map[string]struct{}) ([]*Product, error)
	// SaveVectors 保存商品的向量（向量化任务的落盘口）。
	SaveVectors(ctx context.Context, id string, vectors VectorSet) error
}

// InteractionStore 为用户交互记录的读取抽象。
type InteractionStore interface {
	// RecentInteractions 返回用户最近 n 条交互，按时间倒序。
	RecentInteractions(ctx context.Context, userID string, n int) ([]Interaction, error)
	// RecentByAction 返回用户最近 n 条指定动作的交互，按时间倒序。
	RecentByAction(ctx context.Context, userID string, action Action, n int) ([]Interaction, error)
	// LikedItemIDs 返回用户点赞过的全部商品 ID。
	LikedItemIDs(ctx context.Context, userID string) ([]string, error)
	// SwipedItemIDs 返回用户滑动过（无论方向）的全部商品 ID。
	SwipedItemIDs(ctx context.Context, userID string) ([]string, error)
	// UsersWithLikes 返回除 excludeUser 外有点赞记录的用户及其点赞集合。
	UsersWithLikes(ctx context.Context, excludeUser string) (map[string][]string, error)
}

// Embedder 为向量编码器抽象（图像 / 文本各一个入口）。
// 实现方通常是对外部推理服务的封装，失败时返回 DEPENDENCY_FAILURE。
type Embedder interface {
	EmbedImage(ctx context.Context, imageURL string) ([]float32, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// ItemMeta 为条目打分所需的最小属性集。
type ItemMeta struct {
	Category string
	BrandID  string
}

// ItemMetaService 为条目属性补全抽象；特征平台与目录存储均可实现。
type ItemMetaService interface {
	BatchGetItemMeta(ctx context.Context, ids []string) (map[string]ItemMeta, error)
}
