package filter

import (
	"context"
	"sync"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pkg/dsl"
)

// ExprFilter 以 CEL 表达式声明剔除规则，表达式求值为 true 的候选被剔除。
//
// 示例：
//   - `item.score < 0.2`
//   - `item.category == "clothing" && label.recall == "random"`
type ExprFilter struct {
	Expr string

	once sync.Once
	prg  *dsl.Program
	err  error
}

var _ Filter = (*ExprFilter)(nil)

func (f *ExprFilter) Name() string { return "filter.expr" }

func (f *ExprFilter) compile() (*dsl.Program, error) {
	f.once.Do(func() {
		f.prg, f.err = dsl.Compile(f.Expr)
	})
	return f.prg, f.err
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Expr == "" {
		return false, nil
	}
	prg, err := f.compile()
	if err != nil {
		return false, err
	}
	return prg.EvalItem(item, rctx)
}
