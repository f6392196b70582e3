package vector

import (
	"math"
	"testing"

	"github.com/rushteam/swipekit/core"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
		ok   bool
	}{
		{"同向", []float32{1, 0}, []float32{2, 0}, 1, true},
		{"正交", []float32{1, 0}, []float32{0, 1}, 0, true},
		{"反向", []float32{1, 0}, []float32{-1, 0}, -1, true},
		{"维度不一致", []float32{1, 0}, []float32{1, 0, 0}, 0, false},
		{"零向量", []float32{0, 0}, []float32{1, 0}, 0, false},
		{"空向量", nil, nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Cosine(tt.a, tt.b)
			if ok != tt.ok {
				t.Fatalf("ok = %v, 期望 %v", ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

// 累加的浮点误差不能把余弦结果推出单位区间。
func TestCosineBounds(t *testing.T) {
	v := make([]float32, 64)
	for i := range v {
		v[i] = 0.1
	}
	neg := make([]float32, len(v))
	for i, x := range v {
		neg[i] = -x
	}
	if s, ok := Cosine(v, v); !ok || s > 1 || s < 1-1e-12 {
		t.Errorf("自相似度应为 1 且不越界, 实际 %.17g", s)
	}
	if s, ok := Cosine(v, neg); !ok || s < -1 || s > -1+1e-12 {
		t.Errorf("反向相似度应为 -1 且不越界, 实际 %.17g", s)
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-6 {
		t.Errorf("归一化后模长应为 1, 实际 %v", math.Sqrt(norm))
	}

	// 零向量原样返回，不产生 NaN
	z := Normalize([]float32{0, 0})
	for _, x := range z {
		if x != 0 {
			t.Errorf("零向量归一化应保持为零, 实际 %v", z)
		}
	}
}

// 归一化后内积应等于余弦相似度。
func TestDotEqualsCosineAfterNormalize(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	want, _ := Cosine(a, b)
	got := Dot(Normalize(a), Normalize(b))
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("归一化内积 %v != 余弦 %v", got, want)
	}
}

func TestFuse(t *testing.T) {
	weights := DefaultModalityWeights()

	// 双模态: (0.8*0.6 + 0.5*0.4) / (0.6+0.4) = 0.68
	got, ok := Fuse(map[core.Modality]float64{
		core.ModalityImage: 0.8,
		core.ModalityText:  0.5,
	}, weights)
	if !ok || math.Abs(got-0.68) > 1e-9 {
		t.Errorf("双模态融合 = %v (%v), 期望 0.68", got, ok)
	}

	// 单模态: 加权平均退化为该模态原值
	got, ok = Fuse(map[core.Modality]float64{core.ModalityImage: 0.9}, weights)
	if !ok || math.Abs(got-0.9) > 1e-9 {
		t.Errorf("单模态融合 = %v (%v), 期望 0.9", got, ok)
	}

	// 无命中
	if _, ok := Fuse(nil, weights); ok {
		t.Error("空得分不应融合成功")
	}

	// 权重表未覆盖的模态不参与
	if _, ok := Fuse(map[core.Modality]float64{core.ModalityText: 0.5}, map[core.Modality]float64{core.ModalityImage: 1}); ok {
		t.Error("无有效权重时应返回 false")
	}
}
