package core

import "math"

// Modality 标识向量所在的嵌入空间（图像 / 文本 / 融合）。
// 不同 Modality 的向量来自不同的编码器，彼此之间不可直接比较。
type Modality string

const (
	ModalityImage    Modality = "image"    // 图像嵌入
	ModalityText     Modality = "text"     // 文本嵌入
	ModalityCombined Modality = "combined" // 融合嵌入（图像+文本），缺失单模态时的兜底
)

// Modalities 返回全部合法的模态，顺序固定（用于确定性遍历）。
func Modalities() []Modality {
	return []Modality{ModalityImage, ModalityText, ModalityCombined}
}

// Vector 是带模态标签的嵌入向量。
//
// 设计要点：
//   - 显式携带 Modality，长度不匹配 / 模态不匹配是可检测的条件，而不是静默 bug
//   - Data 使用 float32：与上游编码器以及 ANN 库的精度约定一致
//   - 零值（Data 为空）表示"该模态缺失"
type Vector struct {
	Modality Modality
	Data     []float32
}

// Dim 返回向量维度；缺失向量返回 0。
func (v Vector) Dim() int { return len(v.Data) }

// IsZero 判断向量是否缺失。
func (v Vector) IsZero() bool { return len(v.Data) == 0 }

// Norm 返回向量的 L2 范数。
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.Data {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Clone 返回 Data 的深拷贝，避免索引内部与调用方共享底层数组。
func (v Vector) Clone() Vector {
	if v.IsZero() {
		return Vector{Modality: v.Modality}
	}
	data := make([]float32, len(v.Data))
	copy(data, v.Data)
	return Vector{Modality: v.Modality, Data: data}
}

// VectorSet 是一个实体（商品或用户偏好）按模态组织的向量集合。
// 缺失的模态不出现在 map 中（absent ⇒ 无该模态信号）。
type VectorSet map[Modality]Vector

// Has 判断集合中是否存在指定模态的非空向量。
func (s VectorSet) Has(m Modality) bool {
	v, ok := s[m]
	return ok && !v.IsZero()
}

// Complete 判断三个模态是否全部就绪（vectorize 幂等判断的依据）。
func (s VectorSet) Complete() bool {
	return s.Has(ModalityImage) && s.Has(ModalityText) && s.Has(ModalityCombined)
}

// Clone 深拷贝整个集合。
func (s VectorSet) Clone() VectorSet {
	if s == nil {
		return nil
	}
	out := make(VectorSet, len(s))
	for m, v := range s {
		out[m] = v.Clone()
	}
	return out
}
