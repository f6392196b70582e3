package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/swipekit/core"
)

// bucketKey 以 (模态, 维度) 定位一个桶。
// 不同编码器产出的维度不同，同模态不同维度的向量互不可比，各入各桶。
type bucketKey struct {
	modality core.Modality
	dim      int
}

func (k bucketKey) String() string {
	return fmt.Sprintf("%s/%dd", k.modality, k.dim)
}

// bucket 为单个 (模态, 维度) 下的平铺索引。
// ids 与 vecs 只追加不回收，rows 记录每个 ID 的最新行；
// 旧行与被删 ID 在检索时跳过，空间由 Rebuild 回收。
type bucket struct {
	ids  []string
	vecs [][]float32
	rows map[string]int
}

func newBucket() *bucket {
	return &bucket{rows: make(map[string]int)}
}

func (b *bucket) put(id string, vec []float32) {
	b.ids = append(b.ids, id)
	b.vecs = append(b.vecs, vec)
	b.rows[id] = len(b.ids) - 1
}

// BucketIndex 是 core.VectorIndex 的内存实现：按 (模态, 维度) 分桶，
// 桶内做平铺内积检索。入桶前向量统一 L2 归一化，内积即余弦相似度。
//
// 可选字段在首次使用前设置：
//   - MetaLookup 提供类目/品牌属性，用于检索期过滤；为 nil 时属性过滤退化为不过滤
//   - Weights 为模态融合权重，为 nil 时使用 DefaultModalityWeights
type BucketIndex struct {
	MetaLookup func(id string) (core.ItemMeta, bool)
	Weights    map[core.Modality]float64

	mu      sync.RWMutex
	buckets map[bucketKey]*bucket
	deleted map[string]struct{}
	known   map[string]struct{}
}

var _ core.VectorIndex = (*BucketIndex)(nil)

// NewBucketIndex 创建空索引。
func NewBucketIndex() *BucketIndex {
	return &BucketIndex{
		buckets: make(map[bucketKey]*bucket),
		deleted: make(map[string]struct{}),
		known:   make(map[string]struct{}),
	}
}

// Insert 写入一个条目的向量集合，覆盖同 ID 旧向量并解除其删除标记。
func (idx *BucketIndex) Insert(_ context.Context, id string, vectors core.VectorSet) error {
	if id == "" {
		return core.NewDomainError("vector_index", core.ErrCodeInvalidInput, "条目 ID 为空")
	}
	normalized := make(map[bucketKey][]float32, len(vectors))
	for m, v := range vectors {
		if v.IsZero() {
			continue
		}
		normalized[bucketKey{modality: m, dim: v.Dim()}] = Normalize(v.Data)
	}
	if len(normalized) == 0 {
		return core.NewDomainError("vector_index", core.ErrCodeInvalidInput, "条目不含任何非空向量")
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for key, vec := range normalized {
		b, ok := idx.buckets[key]
		if !ok {
			b = newBucket()
			idx.buckets[key] = b
		}
		b.put(id, vec)
	}
	idx.known[id] = struct{}{}
	delete(idx.deleted, id)
	return nil
}

// Remove 标记删除。条目从未入库时返回 NOT_FOUND。
func (idx *BucketIndex) Remove(_ context.Context, id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.known[id]; !ok {
		return core.NewDomainError("vector_index", core.ErrCodeNotFound, "条目不在索引中: "+id)
	}
	idx.deleted[id] = struct{}{}
	return nil
}

// Search 在各查询模态对应的桶中检索并按权重融合。
// 没有任何可检索的桶时返回 core.ErrIndexUnavailable。
func (idx *BucketIndex) Search(ctx context.Context, req core.SearchRequest) ([]core.SearchHit, error) {
	if req.TopK <= 0 {
		return nil, core.NewDomainError("vector_index", core.ErrCodeInvalidInput, "TopK 必须为正数")
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	scores := make(map[string]map[core.Modality]float64)
	searched := false
	for m, v := range req.Query {
		if v.IsZero() {
			continue
		}
		b, ok := idx.buckets[bucketKey{modality: m, dim: v.Dim()}]
		if !ok || len(b.ids) == 0 {
			continue
		}
		searched = true
		query := Normalize(v.Data)
		for row, id := range b.ids {
			if b.rows[id] != row {
				continue // 旧行，已被覆盖
			}
			if _, dead := idx.deleted[id]; dead {
				continue
			}
			if !idx.passRLocked(id, req) {
				continue
			}
			if _, ok := scores[id]; !ok {
				scores[id] = make(map[core.Modality]float64, len(req.Query))
			}
			scores[id][m] = Dot(query, b.vecs[row])
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if !searched {
		return nil, core.ErrIndexUnavailable
	}

	weights := req.Weights
	if weights == nil {
		weights = idx.Weights
	}
	hits := make([]core.SearchHit, 0, len(scores))
	for id, ms := range scores {
		fused, ok := Fuse(ms, weights)
		if !ok {
			continue
		}
		hits = append(hits, core.SearchHit{ID: id, Score: fused, ModalityScores: ms})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID // 同分时按 ID 保证确定性
	})
	if len(hits) > req.TopK {
		hits = hits[:req.TopK]
	}
	return hits, nil
}

// passRLocked 执行检索期的排除与属性过滤，调用方需持有读锁。
func (idx *BucketIndex) passRLocked(id string, req core.SearchRequest) bool {
	if _, excluded := req.Exclude[id]; excluded {
		return false
	}
	if req.Category == "" && req.BrandID == "" {
		return true
	}
	if idx.MetaLookup == nil {
		return true
	}
	meta, ok := idx.MetaLookup(id)
	if !ok {
		return false
	}
	if req.Category != "" && meta.Category != req.Category {
		return false
	}
	if req.BrandID != "" && meta.BrandID != req.BrandID {
		return false
	}
	return true
}

// Rebuild 重建全部桶，丢弃旧行与已删除条目，回收空间。
func (idx *BucketIndex) Rebuild(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for key, b := range idx.buckets {
		nb := newBucket()
		for row, id := range b.ids {
			if b.rows[id] != row {
				continue
			}
			if _, dead := idx.deleted[id]; dead {
				continue
			}
			nb.put(id, b.vecs[row])
		}
		if len(nb.ids) == 0 {
			delete(idx.buckets, key)
			continue
		}
		idx.buckets[key] = nb
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	for id := range idx.deleted {
		delete(idx.known, id)
	}
	idx.deleted = make(map[string]struct{})
	return nil
}

// Stats 返回索引快照。
func (idx *BucketIndex) Stats() core.IndexStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	stats := core.IndexStats{Buckets: make(map[string]int, len(idx.buckets))}
	for key, b := range idx.buckets {
		live := 0
		for row, id := range b.ids {
			if b.rows[id] != row {
				continue
			}
			if _, dead := idx.deleted[id]; dead {
				continue
			}
			live++
		}
		stats.Buckets[key.String()] = live
	}
	stats.Live = len(idx.known) - len(idx.deleted)
	stats.Tombstones = len(idx.deleted)
	return stats
}
