// Package service 提供推荐引擎门面：组装召回/过滤/排序/重排流水线，
// 处理缓存、降级与后台向量化任务。
package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/swipekit/cache"
	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/feature"
	"github.com/rushteam/swipekit/filter"
	"github.com/rushteam/swipekit/pipeline"
	"github.com/rushteam/swipekit/prefs"
	"github.com/rushteam/swipekit/rank"
	"github.com/rushteam/swipekit/recall"
	"github.com/rushteam/swipekit/rerank"
	"github.com/rushteam/swipekit/vector"
	"github.com/rushteam/swipekit/vectorize"
)

// Config 为引擎级默认参数，零值字段使用内置默认。
type Config struct {
	// Weights 为方法权重，默认 vector 0.4 / collaborative 0.3 / content 0.3。
	Weights map[string]float64
	// DefaultLimit 为未指定时的返回条数，默认 10。
	DefaultLimit int
	// ResultTTL 为结果缓存时长，默认 180 秒。
	ResultTTL time.Duration
	// PreferenceTTL 为偏好向量缓存时长，默认 300 秒。
	PreferenceTTL time.Duration
	// PreferenceMethod 为偏好聚合方式，默认 balanced。
	PreferenceMethod prefs.Method
	// CacheSize 为各级 LRU 容量，默认 1024。
	CacheSize int
}

func (c Config) weights() map[string]float64 {
	if len(c.Weights) > 0 {
		return c.Weights
	}
	return map[string]float64{
		recall.MethodVector:        0.4,
		recall.MethodCollaborative: 0.3,
		recall.MethodContent:       0.3,
	}
}

func (c Config) defaultLimit() int {
	if c.DefaultLimit > 0 {
		return c.DefaultLimit
	}
	return 10
}

func (c Config) preferenceMethod() prefs.Method {
	if c.PreferenceMethod != "" {
		return c.PreferenceMethod
	}
	return prefs.MethodBalanced
}

// Options 为引擎装配参数。
type Options struct {
	Catalog      core.CatalogStore
	Interactions core.InteractionStore
	// Index 为 nil 时内建一个 BucketIndex。
	Index core.VectorIndex
	// Embedder 为可选的编码器；缺失时向量化与文本检索不可用。
	Embedder core.Embedder
	// MetaService 为可选的特征平台取数口（如 feast.MetaAdapter）。
	MetaService core.ItemMetaService
	// Backing 为可选的二级缓存存储（Redis 等）。
	Backing core.Store
	// Rand 注入随机源以获得可复现结果；为 nil 时使用全局随机源。
	Rand   *rand.Rand
	Logger *zap.Logger

	Config Config
}

// Engine 是推荐引擎门面。
type Engine struct {
	catalog      core.CatalogStore
	interactions core.InteractionStore
	index        core.VectorIndex
	embedder     core.Embedder
	metaService  core.ItemMetaService
	queue        *vectorize.Queue
	aggregator   *prefs.Aggregator

	resultCache *cache.Cache
	prefCache   *cache.Cache

	rnd    *rand.Rand
	logger *zap.Logger
	cfg    Config
}

// New 装配推荐引擎。
func New(opts Options) (*Engine, error) {
	if opts.Catalog == nil {
		return nil, core.NewDomainError("service", core.ErrCodeInvalidInput, "Catalog 未配置")
	}
	if opts.Interactions == nil {
		return nil, core.NewDomainError("service", core.ErrCodeInvalidInput, "Interactions 未配置")
	}
	if err := rank.ValidateWeights(opts.Config.weights()); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	index := opts.Index
	if index == nil {
		idx := vector.NewBucketIndex()
		idx.MetaLookup = func(id string) (core.ItemMeta, bool) {
			p, err := opts.Catalog.GetProduct(context.Background(), id)
			if err != nil {
				return core.ItemMeta{}, false
			}
			return core.ItemMeta{Category: p.Category, BrandID: p.BrandID}, true
		}
		index = idx
	}

	e := &Engine{
		catalog:      opts.Catalog,
		interactions: opts.Interactions,
		index:        index,
		embedder:     opts.Embedder,
		metaService:  opts.MetaService,
		aggregator: &prefs.Aggregator{
			Interactions: opts.Interactions,
			Catalog:      opts.Catalog,
		},
		rnd:    opts.Rand,
		logger: logger,
		cfg:    opts.Config,
	}
	e.resultCache = cache.New(cache.Options{
		Name:    "results",
		Size:    opts.Config.CacheSize,
		TTL:     ttlOr(opts.Config.ResultTTL, 180*time.Second),
		Backing: opts.Backing,
		Logger:  logger,
	})
	e.prefCache = cache.New(cache.Options{
		Name: "preferences",
		Size: opts.Config.CacheSize,
		TTL:  ttlOr(opts.Config.PreferenceTTL, 300*time.Second),
		// 偏好向量只做进程内缓存，跨实例重算成本可接受
		Logger: logger,
	})
	if opts.Embedder != nil {
		e.queue = vectorize.NewQueue(opts.Catalog, opts.Embedder, index, logger)
	}
	return e, nil
}

func ttlOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}

// RecommendRequest 为推荐请求。
type RecommendRequest struct {
	UserID string
	// Limit <= 0 时使用引擎默认值。
	Limit int
	// Category / BrandID 非空时收敛候选。
	Category string
	BrandID  string
	// Weights 覆盖引擎默认方法权重。
	Weights map[string]float64
	// PreferenceMethod 覆盖引擎默认偏好聚合方式。
	PreferenceMethod prefs.Method
	// ExcludeIDs 为请求方额外排除的商品。
	ExcludeIDs []string
	// Refresh 为 true 时跳过缓存读（仍会写入新结果）。
	Refresh bool
}

// GetRecommendations 返回用户的推荐列表。
// 主链路为多路召回 + 混合排序；候选为空时降级到内容召回，再到随机兜底。
func (e *Engine) GetRecommendations(ctx context.Context, req RecommendRequest) (*Result, error) {
	if req.UserID == "" {
		return nil, core.NewDomainError("service", core.ErrCodeInvalidInput, "用户 ID 为空")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = e.cfg.defaultLimit()
	}
	weights := req.Weights
	if len(weights) == 0 {
		weights = e.cfg.weights()
	}
	if err := rank.ValidateWeights(weights); err != nil {
		return nil, err
	}
	method := req.PreferenceMethod
	if method == "" {
		method = e.cfg.preferenceMethod()
	}

	key := e.resultKey(req, limit, weights, method)
	if !req.Refresh {
		if v, ok := e.resultCache.Get(ctx, key); ok {
			if cached, ok := v.(*Result); ok {
				cp := *cached
				cp.CacheHit = true
				return &cp, nil
			}
		}
	}

	rctx, err := e.buildContext(ctx, req, limit, weights)
	if err != nil {
		return nil, err
	}

	result, err := e.runTiers(ctx, rctx, limit, method)
	if err != nil {
		return nil, err
	}
	result.UserID = req.UserID

	e.resultCache.Set(ctx, key, result)
	e.logger.Info("推荐完成",
		zap.String("user_id", req.UserID),
		zap.String("tier", result.Tier),
		zap.Int("count", len(result.Items)))
	return result, nil
}

// buildContext 构造请求上下文：排除集合（已滑动 + 请求指定）与过滤参数。
func (e *Engine) buildContext(ctx context.Context, req RecommendRequest, limit int, weights map[string]float64) (*core.RecommendContext, error) {
	swiped, err := e.interactions.SwipedItemIDs(ctx, req.UserID)
	if err != nil {
		return nil, core.WrapDomainError("service", core.ErrCodeDependencyFailure, "读取滑动历史失败", err)
	}
	exclude := make(map[string]struct{}, len(swiped)+len(req.ExcludeIDs))
	for _, id := range swiped {
		exclude[id] = struct{}{}
	}
	for _, id := range req.ExcludeIDs {
		exclude[id] = struct{}{}
	}

	rctx := core.NewRecommendContext(req.UserID, limit)
	rctx.SetParam("exclude_ids", exclude)
	rctx.SetParam("method_weights", weights)
	if req.Category != "" {
		rctx.SetParam("category", req.Category)
	}
	if req.BrandID != "" {
		rctx.SetParam("brand_id", req.BrandID)
	}
	return rctx, nil
}

// runTiers 依次尝试各级链路，首个产出非空结果的层级胜出。
func (e *Engine) runTiers(ctx context.Context, rctx *core.RecommendContext, limit int, method prefs.Method) (*Result, error) {
	items, err := e.hybridPipeline(method).Run(ctx, rctx, nil)
	if err != nil {
		if core.IsInvalidInput(err) {
			return nil, err
		}
		e.logger.Warn("主链路失败, 降级", zap.String("user_id", rctx.UserID), zap.Error(err))
	}
	if len(items) > 0 {
		return e.toResult(items, TierHybrid), nil
	}

	items, err = e.contentPipeline().Run(ctx, rctx, nil)
	if err != nil {
		e.logger.Warn("内容链路失败, 降级", zap.String("user_id", rctx.UserID), zap.Error(err))
	}
	if len(items) > 0 {
		return e.toResult(items, TierContentOnly), nil
	}

	items, err = e.randomPipeline().Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	return e.toResult(items, TierRandom), nil
}

// hybridPipeline 组装主链路：多路扇出 → 属性补全 → 过滤 → 混合排序 → 多样性 → 截断。
func (e *Engine) hybridPipeline(method prefs.Method) *pipeline.Pipeline {
	fanout := &recall.Fanout{
		Sources: []recall.Source{
			&recall.VectorSource{
				Index:      e.index,
				Preference: e.preferenceFn(method),
				Catalog:    e.catalog,
			},
			&recall.CollaborativeSource{Interactions: e.interactions},
			&recall.ContentSource{Catalog: e.catalog, Interactions: e.interactions, Rand: e.rnd},
		},
		Timeout: 5 * time.Second,
		Merge:   recall.MergeUnion,
	}
	diversity := rerank.NewDiversityNode(e.interactions, e.catalog)
	diversity.Rand = e.rnd
	return &pipeline.Pipeline{
		Name: "hybrid",
		Nodes: []pipeline.Node{
			fanout,
			&feature.EnrichNode{MetaService: e.metaService, Catalog: e.catalog},
			&filter.FilterNode{Filters: []filter.Filter{
				&filter.SwipedFilter{Interactions: e.interactions},
				&filter.AttributeFilter{},
			}},
			&rank.HybridNode{Weights: e.cfg.weights()},
			diversity,
			&rerank.TopNNode{},
		},
	}
}

// contentPipeline 为内容召回降级链路。
func (e *Engine) contentPipeline() *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Name: "content_only",
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources: []recall.Source{
					&recall.ContentSource{Catalog: e.catalog, Interactions: e.interactions, Rand: e.rnd},
				},
				Merge: recall.MergeUnion,
			},
			&feature.EnrichNode{MetaService: e.metaService, Catalog: e.catalog},
			&filter.FilterNode{Filters: []filter.Filter{
				&filter.SwipedFilter{Interactions: e.interactions},
				&filter.AttributeFilter{},
			}},
			&rerank.TopNNode{},
		},
	}
}

// randomPipeline 为随机兜底链路。请求携带的类目/品牌约束在兜底层同样生效，
// 抽样倍数放大以抵消过滤损耗。
func (e *Engine) randomPipeline() *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Name: "random",
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources: []recall.Source{
					&recall.RandomSource{Catalog: e.catalog, Rand: e.rnd, Multiplier: 4},
				},
				Merge: recall.MergeFirst,
			},
			&feature.EnrichNode{MetaService: e.metaService, Catalog: e.catalog},
			&filter.FilterNode{Filters: []filter.Filter{
				&filter.SwipedFilter{Interactions: e.interactions},
				&filter.AttributeFilter{},
			}},
			&rerank.TopNNode{},
		},
	}
}

// preferenceFn 返回带缓存的偏好向量读取函数。
func (e *Engine) preferenceFn(method prefs.Method) recall.PreferenceFn {
	return func(ctx context.Context, userID string) (core.VectorSet, error) {
		key := fmt.Sprintf("prefs:u:%s:m:%s", userID, method)
		if v, ok := e.prefCache.Get(ctx, key); ok {
			if set, ok := v.(core.VectorSet); ok {
				return set, nil
			}
		}
		set, err := e.aggregator.Preference(ctx, userID, method)
		if err != nil {
			return nil, err // 无信号不缓存，用户一旦产生点赞立即生效
		}
		e.prefCache.Set(ctx, key, set)
		return set, nil
	}
}

// toResult 把流水线产出转为对外结果。
func (e *Engine) toResult(items []*core.Item, tier string) *Result {
	recs := make([]Recommendation, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		recs = append(recs, Recommendation{
			ItemID:       it.ID,
			Score:        it.Score,
			Reason:       reasonFor(it, tier),
			MethodsUsed:  methodsOf(it),
			MethodScores: methodScoresOf(it),
		})
	}
	return &Result{Items: recs, Tier: tier}
}

// resultKey 按请求维度构造缓存键；权重参与键名，避免不同权重互相污染。
func (e *Engine) resultKey(req RecommendRequest, limit int, weights map[string]float64, method prefs.Method) string {
	methods := make([]string, 0, len(weights))
	for m := range weights {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	var b strings.Builder
	fmt.Fprintf(&b, "rec:u:%s:l:%d:c:%s:b:%s:m:%s", req.UserID, limit, req.Category, req.BrandID, method)
	for _, m := range methods {
		fmt.Fprintf(&b, ":%s=%.3f", m, weights[m])
	}
	return b.String()
}

// ClearUserCache 清理某个用户的结果与偏好缓存。
// 用户产生新滑动后调用，保证下一次请求反映最新行为。
func (e *Engine) ClearUserCache(ctx context.Context, userID string) int {
	pattern := ":u:" + userID + ":"
	return e.resultCache.ClearPattern(ctx, pattern) + e.prefCache.ClearPattern(ctx, pattern)
}

// ClearCache 按子串模式清理两级缓存；pattern 为空时清空全部。
func (e *Engine) ClearCache(ctx context.Context, pattern string) int {
	return e.resultCache.ClearPattern(ctx, pattern) + e.prefCache.ClearPattern(ctx, pattern)
}

// ClearAllCache 清空全部缓存，返回清理的条目数。
func (e *Engine) ClearAllCache(ctx context.Context) int {
	return e.ClearCache(ctx, "")
}

// RebuildIndex 以目录中已向量化的商品重建向量索引，回收墓碑与旧行。
// 目录为权威数据源，索引中多余的条目在重建后消失。
func (e *Engine) RebuildIndex(ctx context.Context) error {
	products, err := e.catalog.ListProducts(ctx)
	if err != nil {
		return core.WrapDomainError("service", core.ErrCodeDependencyFailure, "读取目录失败", err)
	}
	inserted := 0
	for _, p := range products {
		if len(p.Vectors) == 0 {
			continue
		}
		if err := e.index.Insert(ctx, p.ID, p.Vectors); err != nil {
			e.logger.Warn("索引重建写入失败", zap.String("item_id", p.ID), zap.Error(err))
			continue
		}
		inserted++
	}
	if err := e.index.Rebuild(ctx); err != nil {
		return err
	}
	e.logger.Info("索引重建完成", zap.Int("inserted", inserted))
	return nil
}
