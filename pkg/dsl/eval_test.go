package dsl

import (
	"testing"

	"github.com/rushteam/swipekit/core"
)

func TestCompileAndEval(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"数值比较", `item.score > 0.5`, true},
		{"属性相等", `item.category == "clothing"`, true},
		{"逻辑组合", `item.category == "clothing" && item.score < 0.5`, false},
		{"标签访问", `label.recall == "vector"`, true},
		{"上下文访问", `rctx.user_id == "u1"`, true},
	}

	item := core.NewItem("p1").WithScore(0.8)
	item.SetMeta("category", "clothing")
	item.AddLabel("vector", "recall")
	rctx := core.NewRecommendContext("u1", 10)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prg, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("编译失败: %v", err)
			}
			got, err := prg.EvalItem(item, rctx)
			if err != nil {
				t.Fatalf("求值失败: %v", err)
			}
			if got != tt.want {
				t.Errorf("%s = %v, 期望 %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestCompileInvalid(t *testing.T) {
	if _, err := Compile(`item.score >`); err == nil {
		t.Error("非法表达式应编译失败")
	}
}

func TestEvalNonBoolean(t *testing.T) {
	prg, err := Compile(`item.score + 1.0`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := prg.EvalItem(core.NewItem("p1"), nil); err == nil {
		t.Error("非布尔结果应报错")
	}
}
