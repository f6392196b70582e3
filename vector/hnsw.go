package vector

import (
	"context"
	"sort"
	"sync"

	"github.com/TFMV/hnsw"

	"github.com/rushteam/swipekit/core"
)

// graphBucket 为单个 (模态, 维度) 下的 HNSW 图与当前向量表。
// 覆盖写可能在图中留下旧节点，检索结果统一以 vecs 中的当前向量重新打分并去重。
type graphBucket struct {
	graph *hnsw.Graph[string]
	vecs  map[string][]float32
}

// HNSWIndex 是 core.VectorIndex 的近似检索实现，底层使用 HNSW 图。
// 目录规模超出平铺扫描承受范围时替换 BucketIndex 使用；接口语义与其一致，
// 区别在于检索为近似结果，且带余量扩召回以抵消检索期过滤的损耗。
type HNSWIndex struct {
	MetaLookup func(id string) (core.ItemMeta, bool)
	Weights    map[core.Modality]float64
	// CandidateFactor 为扩召回倍数，实际取 max(TopK×factor, TopK+排除数)。默认 5。
	CandidateFactor int

	mu      sync.RWMutex
	buckets map[bucketKey]*graphBucket
	deleted map[string]struct{}
	known   map[string]struct{}
}

var _ core.VectorIndex = (*HNSWIndex)(nil)

// NewHNSWIndex 创建空索引。
func NewHNSWIndex() *HNSWIndex {
	return &HNSWIndex{
		buckets: make(map[bucketKey]*graphBucket),
		deleted: make(map[string]struct{}),
		known:   make(map[string]struct{}),
	}
}

func (idx *HNSWIndex) factor() int {
	if idx.CandidateFactor > 0 {
		return idx.CandidateFactor
	}
	return 5
}

func newGraphBucket() *graphBucket {
	g := hnsw.NewGraph[string]()
	g.Distance = hnsw.CosineDistance
	return &graphBucket{graph: g, vecs: make(map[string][]float32)}
}

// Insert 写入一个条目的向量集合，覆盖同 ID 旧向量并解除其删除标记。
func (idx *HNSWIndex) Insert(_ context.Context, id string, vectors core.VectorSet) error {
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
			b = newGraphBucket()
			idx.buckets[key] = b
		}
		b.graph.Add(hnsw.MakeNode(id, vec))
		b.vecs[id] = vec
	}
	idx.known[id] = struct{}{}
	delete(idx.deleted, id)
	return nil
}

// Remove 标记删除。条目从未入库时返回 NOT_FOUND。
func (idx *HNSWIndex) Remove(_ context.Context, id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.known[id]; !ok {
		return core.NewDomainError("vector_index", core.ErrCodeNotFound, "条目不在索引中: "+id)
	}
	idx.deleted[id] = struct{}{}
	return nil
}

// Search 在各查询模态对应的图中做近似检索并按权重融合。
func (idx *HNSWIndex) Search(ctx context.Context, req core.SearchRequest) ([]core.SearchHit, error) {
	if req.TopK <= 0 {
		return nil, core.NewDomainError("vector_index", core.ErrCodeInvalidInput, "TopK 必须为正数")
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	fetch := req.TopK * idx.factor()
	if need := req.TopK + len(req.Exclude); need > fetch {
		fetch = need
	}

	scores := make(map[string]map[core.Modality]float64)
	searched := false
	for m, v := range req.Query {
		if v.IsZero() {
			continue
		}
		b, ok := idx.buckets[bucketKey{modality: m, dim: v.Dim()}]
		if !ok || b.graph.Len() == 0 {
			continue
		}
		searched = true
		query := Normalize(v.Data)
		k := fetch
		if n := b.graph.Len(); k > n {
			k = n
		}
		nodes, err := b.graph.Search(query, k)
		if err != nil {
			return nil, err
		}
		for _, node := range nodes {
			id := node.Key
			cur, ok := b.vecs[id]
			if !ok {
				continue
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
			// 覆盖写可能让图返回旧节点，统一用当前向量重打分
			scores[id][m] = Dot(query, cur)
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
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > req.TopK {
		hits = hits[:req.TopK]
	}
	return hits, nil
}

func (idx *HNSWIndex) passRLocked(id string, req core.SearchRequest) bool {
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

// Rebuild 重建全部图，丢弃已删除条目。
func (idx *HNSWIndex) Rebuild(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for key, b := range idx.buckets {
		nb := newGraphBucket()
		for id, vec := range b.vecs {
			if _, dead := idx.deleted[id]; dead {
				continue
			}
			nb.graph.Add(hnsw.MakeNode(id, vec))
			nb.vecs[id] = vec
		}
		if len(nb.vecs) == 0 {
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
func (idx *HNSWIndex) Stats() core.IndexStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	stats := core.IndexStats{Buckets: make(map[string]int, len(idx.buckets))}
	for key, b := range idx.buckets {
		live := 0
		for id := range b.vecs {
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
