// Package vector 提供余弦相似度计算与按 (模态, 维度) 分桶的内存向量索引。
package vector

import (
	"math"

	"github.com/rushteam/swipekit/core"
)

// DefaultModalityWeights 为各模态参与融合的默认权重。
// combined 仅在单模态缺失时作为兜底，独立参与时权重为 1。
func DefaultModalityWeights() map[core.Modality]float64 {
	return map[core.Modality]float64{
		core.ModalityImage:    0.6,
		core.ModalityText:     0.4,
		core.ModalityCombined: 1.0,
	}
}

// Cosine 计算两个向量的余弦相似度，结果收敛在 [-1, 1]。
// 维度不一致或任一向量为零向量时返回 (0, false)，表示不可比较。
func Cosine(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	// 浮点误差可能让结果溢出单位区间一个 ulp
	return math.Max(-1, math.Min(1, dot/(math.Sqrt(na)*math.Sqrt(nb)))), true
}

// Dot 计算内积。向量均已 L2 归一化时内积即余弦相似度。
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Normalize 返回 L2 归一化后的副本；零向量原样拷贝返回。
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Fuse 按权重融合各模态相似度，返回加权平均。
// 只对实际命中的模态计权：Σ(score_m × w_m) / Σ(w_m)。
// 无任何模态命中时返回 (0, false)。
func Fuse(scores map[core.Modality]float64, weights map[core.Modality]float64) (float64, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	if weights == nil {
		weights = DefaultModalityWeights()
	}
	var weighted, total float64
	for m, s := range scores {
		w, ok := weights[m]
		if !ok || w <= 0 {
			continue
		}
		weighted += s * w
		total += w
	}
	if total == 0 {
		return 0, false
	}
	return weighted / total, true
}
