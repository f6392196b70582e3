// Package prefs 根据用户的滑动历史聚合其按模态的偏好向量，作为向量召回的查询。
package prefs

import (
	"context"
	"math"
	"time"

	"github.com/rushteam/swipekit/core"
)

// Method 为偏好向量的聚合方式。
type Method string

const (
	// MethodPlain 对点赞商品的向量做简单平均。
	MethodPlain Method = "plain"
	// MethodTimeWeighted 按交互时间做指数衰减加权，越新的点赞权重越高。
	MethodTimeWeighted Method = "time_weighted"
	// MethodBalanced 在时间衰减权重的基础上引入负权重的点踩信号，把偏好推离不喜欢的方向。
	MethodBalanced Method = "balanced"
)

// Aggregator 聚合用户偏好向量。
//
// 可选字段零值时使用默认：MaxLikes 10、MaxDislikes 5、DecayDays 30、
// DislikeWeight -0.5、Now 取 time.Now。
type Aggregator struct {
	Interactions core.InteractionStore
	Catalog      core.CatalogStore

	MaxLikes      int
	MaxDislikes   int
	DecayDays     float64
	DislikeWeight float64
	Now           func() time.Time
}

func (a *Aggregator) maxLikes() int {
	if a.MaxLikes > 0 {
		return a.MaxLikes
	}
	return 10
}

func (a *Aggregator) maxDislikes() int {
	if a.MaxDislikes > 0 {
		return a.MaxDislikes
	}
	return 5
}

func (a *Aggregator) decayDays() float64 {
	if a.DecayDays > 0 {
		return a.DecayDays
	}
	return 30
}

func (a *Aggregator) dislikeWeight() float64 {
	if a.DislikeWeight != 0 {
		return a.DislikeWeight
	}
	return -0.5
}

func (a *Aggregator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// decay 按交互距今的天数做指数衰减，未来时间按 0 天处理。
func (a *Aggregator) decay(now time.Time, it core.Interaction) float64 {
	days := now.Sub(it.CreatedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Exp(-days / a.decayDays())
}

// weighted 为参与聚合的一条交互及其权重。
type weighted struct {
	interaction core.Interaction
	weight      float64
}

// Preference 计算用户的偏好向量集合。
// 用户没有任何点赞记录时返回 UNAVAILABLE，调用方据此走冷启动路径。
func (a *Aggregator) Preference(ctx context.Context, userID string, method Method) (core.VectorSet, error) {
	likes, err := a.Interactions.RecentByAction(ctx, userID, core.ActionLike, a.maxLikes())
	if err != nil {
		return nil, core.WrapDomainError("prefs", core.ErrCodeDependencyFailure, "读取点赞记录失败", err)
	}

	entries := make([]weighted, 0, len(likes)+a.maxDislikes())
	switch method {
	case MethodPlain, "":
		if len(likes) == 0 {
			return nil, core.NewDomainError("prefs", core.ErrCodeUnavailable, "用户暂无偏好信号: "+userID)
		}
		for _, it := range likes {
			entries = append(entries, weighted{interaction: it, weight: 1})
		}
	case MethodTimeWeighted:
		if len(likes) == 0 {
			return nil, core.NewDomainError("prefs", core.ErrCodeUnavailable, "用户暂无偏好信号: "+userID)
		}
		now := a.now()
		for _, it := range likes {
			entries = append(entries, weighted{interaction: it, weight: a.decay(now, it)})
		}
	case MethodBalanced:
		// 点赞与点踩共用同一套时间衰减权重，点踩取负的半幅
		dislikes, err := a.Interactions.RecentByAction(ctx, userID, core.ActionDislike, a.maxDislikes())
		if err != nil {
			return nil, core.WrapDomainError("prefs", core.ErrCodeDependencyFailure, "读取点踩记录失败", err)
		}
		if len(likes) == 0 && len(dislikes) == 0 {
			return nil, core.NewDomainError("prefs", core.ErrCodeUnavailable, "用户暂无偏好信号: "+userID)
		}
		now := a.now()
		for _, it := range likes {
			entries = append(entries, weighted{interaction: it, weight: a.decay(now, it)})
		}
		for _, it := range dislikes {
			entries = append(entries, weighted{interaction: it, weight: a.decay(now, it) * a.dislikeWeight()})
		}
	default:
		return nil, core.NewDomainError("prefs", core.ErrCodeInvalidInput, "未知的聚合方式: "+string(method))
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.interaction.ItemID)
	}
	products, err := a.Catalog.BatchGetProducts(ctx, ids)
	if err != nil {
		return nil, core.WrapDomainError("prefs", core.ErrCodeDependencyFailure, "读取商品向量失败", err)
	}

	prefs := make(core.VectorSet)
	for _, m := range core.Modalities() {
		if v, ok := a.aggregate(entries, products, m); ok {
			prefs[m] = v
		}
	}
	if len(prefs) == 0 {
		return nil, core.NewDomainError("prefs", core.ErrCodeUnavailable, "点赞商品均未向量化: "+userID)
	}
	return prefs, nil
}

// aggregate 对单个模态做加权平均。
// 以首个出现的维度为准，其余维度跳过；权重可为负（点踩），分母取权重绝对值之和，
// 保证结果方向与正信号一致。
func (a *Aggregator) aggregate(entries []weighted, products map[string]*core.Product, m core.Modality) (core.Vector, bool) {
	var (
		sum      []float64
		total    float64
		contribs int
	)
	for _, e := range entries {
		p, ok := products[e.interaction.ItemID]
		if !ok || !p.Vectors.Has(m) {
			continue
		}
		data := p.Vectors[m].Data
		if sum == nil {
			sum = make([]float64, len(data))
		}
		if len(data) != len(sum) {
			continue // 维度不一致，跳过
		}
		for i, x := range data {
			sum[i] += e.weight * float64(x)
		}
		total += math.Abs(e.weight)
		contribs++
	}
	if contribs == 0 || total == 0 {
		return core.Vector{}, false
	}
	out := make([]float32, len(sum))
	for i, x := range sum {
		out[i] = float32(x / total)
	}
	return core.Vector{Modality: m, Data: out}, true
}
