// Package swipekit 是一个基于向量的滑动推荐引擎（Swipe Recommender Kit）。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → Rank → ReRank → PostProcess）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 降级观测
// - 多模态向量: image / text / combined 三路向量按权重融合打分
// - 分层降级: hybrid → content_only → random，冷启动用户也有结果
package swipekit

import "github.com/rushteam/swipekit/pipeline"

// 轻量 facade：便于用户直接 import "swipekit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
