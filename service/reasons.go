package service

import (
	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pkg/conv"
	"github.com/rushteam/swipekit/pkg/utils"
	"github.com/rushteam/swipekit/recall"
)

// 面向用户的推荐理由，按产出层级与召回方法分档。
const (
	reasonMultiSignal   = "Recommended by multiple signals"
	reasonVector        = "Similar to items you liked"
	reasonCollaborative = "Popular with users like you"
	reasonContent       = "Matches your favorite categories and brands"
	reasonRandom        = "Discover something new"
	reasonDefault       = "Picked for you"
)

// reasonFor 生成单条推荐的理由文案。
func reasonFor(it *core.Item, tier string) string {
	if tier == TierRandom {
		return reasonRandom
	}
	methods := methodsOf(it)
	if len(methods) > 1 {
		return reasonMultiSignal
	}
	if len(methods) == 1 {
		switch methods[0] {
		case recall.MethodVector:
			return reasonVector
		case recall.MethodCollaborative:
			return reasonCollaborative
		case recall.MethodContent:
			return reasonContent
		case recall.MethodRandom:
			return reasonRandom
		}
	}
	if tier == TierContentOnly {
		return reasonContent
	}
	return reasonDefault
}

// methodsOf 返回条目途经的召回方法。
func methodsOf(it *core.Item) []string {
	return utils.LabelValues(it.Labels, "recall")
}

// methodScoresOf 返回混合排序留下的分方法得分明细。
func methodScoresOf(it *core.Item) map[string]float64 {
	v, ok := it.GetMeta("method_scores")
	if !ok {
		return nil
	}
	if m, ok := v.(map[string]float64); ok {
		return m
	}
	if m, ok := v.(map[string]any); ok {
		out := make(map[string]float64, len(m))
		for k, raw := range m {
			if f, ok := conv.ToFloat64(raw); ok {
				out[k] = f
			}
		}
		return out
	}
	return nil
}
