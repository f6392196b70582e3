package recall

import (
	"context"
	"math/rand"

	"github.com/rushteam/swipekit/core"
)

// RandomSource 从目录随机抽样的召回源，冷启动与探索场景的兜底。
// 得分取 [0.5, 0.8) 的随机值：低于强信号召回，高于无信号基线。
type RandomSource struct {
	Catalog core.CatalogStore

	// Multiplier 为相对 rctx.Limit 的扩召回倍数，默认 2。
	Multiplier int
	// Rand 为 nil 时使用全局随机源。
	Rand *rand.Rand
}

var _ Source = (*RandomSource)(nil)

func (s *RandomSource) Name() string { return MethodRandom }

func (s *RandomSource) multiplier() int {
	if s.Multiplier > 0 {
		return s.Multiplier
	}
	return 2
}

func (s *RandomSource) randFloat() float64 {
	if s.Rand != nil {
		return s.Rand.Float64()
	}
	return rand.Float64()
}

func (s *RandomSource) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	n := rctx.Limit * s.multiplier()
	if n <= 0 {
		n = 20
	}
	products, err := s.Catalog.RandomProducts(ctx, n, excludeSet(rctx))
	if err != nil {
		return nil, core.WrapDomainError("recall", core.ErrCodeDependencyFailure, "随机抽样失败", err)
	}
	items := make([]*core.Item, 0, len(products))
	for _, p := range products {
		items = append(items, core.NewItem(p.ID).WithScore(0.5+s.randFloat()*0.3))
	}
	return items, nil
}
