// Package dsl 基于 CEL (Common Expression Language) 提供条目级的规则表达式能力，
// 供过滤节点以配置化方式声明剔除规则。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/swipekit/core"
)

var (
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// getEnv 返回全局 CEL 环境。CEL 环境线程安全，进程内只初始化一次。
func getEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 为编译后的规则表达式，可跨条目复用。
//
// 表达式语法（CEL 标准语法）：
//   - 属性：item.category == "electronics" / item.brand_id != "b1"
//   - 数值：item.score > 0.7
//   - 逻辑：item.category == "shoes" && item.score < 0.3
//   - 标签：label.recall.contains("vector")
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译规则表达式。表达式非法时返回错误，调用方应在装配期 fail fast。
func Compile(expr string) (*Program, error) {
	env, err := getEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: init cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式文本。
func (p *Program) Expr() string { return p.expr }

// EvalItem 对单个条目求值，表达式必须返回布尔。
func (p *Program) EvalItem(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: %q must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 求值的输入。
// label 按 Source 展开为 "source -> value" 的顶层访问（label.recall 等）；
// 访问不存在的 key 时 CEL 会报错，表达式应使用 label.key != null 判断存在性。
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for _, l := range item.Labels {
		labels[l.Source] = l.Value
	}

	in := map[string]any{
		"item": map[string]any{
			"id":       item.ID,
			"score":    item.Score,
			"category": item.MetaString("category"),
			"brand_id": item.MetaString("brand_id"),
			"meta":     item.Meta,
		},
		"label": labels,
	}
	if rctx != nil {
		in["rctx"] = map[string]any{
			"user_id": rctx.UserID,
			"limit":   rctx.Limit,
			"params":  rctx.Params,
		}
	} else {
		in["rctx"] = map[string]any{}
	}
	return in
}
