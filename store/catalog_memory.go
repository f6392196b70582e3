package store

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/swipekit/core"
)

// MemoryCatalog 是内存实现的商品目录与交互记录存储。
// 开发、测试与单机原型场景下同时充当 CatalogStore 与 InteractionStore。
type MemoryCatalog struct {
	mu           sync.RWMutex
	products     map[string]*core.Product
	interactions map[string][]core.Interaction // userID -> 按时间升序

	// Rand 用于随机抽样；为 nil 时使用全局随机源。
	Rand *rand.Rand
}

var (
	_ core.CatalogStore     = (*MemoryCatalog)(nil)
	_ core.InteractionStore = (*MemoryCatalog)(nil)
)

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		products:     make(map[string]*core.Product),
		interactions: make(map[string][]core.Interaction),
	}
}

// PutProduct 写入或覆盖一件商品。
func (c *MemoryCatalog) PutProduct(p *core.Product) {
	if p == nil || p.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *p
	cp.Vectors = p.Vectors.Clone()
	c.products[p.ID] = &cp
}

// RecordSwipe 记录一次滑动。同一 (用户, 商品) 重复滑动时覆盖旧记录。
func (c *MemoryCatalog) RecordSwipe(userID, itemID string, action core.Action, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.interactions[userID]
	for i := range list {
		if list[i].ItemID == itemID {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	c.interactions[userID] = append(list, core.Interaction{
		UserID:    userID,
		ItemID:    itemID,
		Action:    action,
		CreatedAt: at,
	})
}

func (c *MemoryCatalog) GetProduct(_ context.Context, id string) (*core.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return nil, core.NewDomainError("catalog", core.ErrCodeNotFound, "商品不存在: "+id)
	}
	cp := *p
	cp.Vectors = p.Vectors.Clone()
	return &cp, nil
}

func (c *MemoryCatalog) BatchGetProducts(_ context.Context, ids []string) (map[string]*core.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make(map[string]*core.Product, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			cp := *p
			cp.Vectors = p.Vectors.Clone()
			result[id] = &cp
		}
	}
	return result, nil
}

func (c *MemoryCatalog) ListProducts(_ context.Context) ([]*core.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked(func(*core.Product) bool { return true }), nil
}

func (c *MemoryCatalog) ListProductsWithVector(_ context.Context, m core.Modality) ([]*core.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked(func(p *core.Product) bool { return p.Vectors.Has(m) }), nil
}

func (c *MemoryCatalog) ListProductIDsMissingVectors(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0)
	for id, p := range c.products {
		if !p.Vectors.Complete() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (c *MemoryCatalog) RandomProducts(_ context.Context, n int, exclude map[string]struct{}) ([]*core.Product, error) {
	if n <= 0 {
		return nil, nil
	}
	c.mu.RLock()
	candidates := c.snapshotLocked(func(p *core.Product) bool {
		_, excluded := exclude[p.ID]
		return !excluded
	})
	c.mu.RUnlock()

	// 快照按 ID 排序，洗牌前顺序确定，种子固定时抽样可复现
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	shuffle := rand.Shuffle
	if c.Rand != nil {
		shuffle = c.Rand.Shuffle
	}
	shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, nil
}

func (c *MemoryCatalog) SaveVectors(_ context.Context, id string, vectors core.VectorSet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return core.NewDomainError("catalog", core.ErrCodeNotFound, "商品不存在: "+id)
	}
	if p.Vectors == nil {
		p.Vectors = make(core.VectorSet, len(vectors))
	}
	for m, v := range vectors {
		if !v.IsZero() {
			p.Vectors[m] = v.Clone()
		}
	}
	return nil
}

// snapshotLocked 返回满足条件的商品深拷贝，调用方需持有读锁。
func (c *MemoryCatalog) snapshotLocked(keep func(*core.Product) bool) []*core.Product {
	out := make([]*core.Product, 0, len(c.products))
	for _, p := range c.products {
		if !keep(p) {
			continue
		}
		cp := *p
		cp.Vectors = p.Vectors.Clone()
		out = append(out, &cp)
	}
	return out
}

func (c *MemoryCatalog) RecentInteractions(_ context.Context, userID string, n int) ([]core.Interaction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return recentLocked(c.interactions[userID], n, func(core.Interaction) bool { return true }), nil
}

func (c *MemoryCatalog) RecentByAction(_ context.Context, userID string, action core.Action, n int) ([]core.Interaction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return recentLocked(c.interactions[userID], n, func(it core.Interaction) bool { return it.Action == action }), nil
}

func (c *MemoryCatalog) LikedItemIDs(_ context.Context, userID string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0)
	for _, it := range c.interactions[userID] {
		if it.IsLike() {
			ids = append(ids, it.ItemID)
		}
	}
	return ids, nil
}

func (c *MemoryCatalog) SwipedItemIDs(_ context.Context, userID string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0)
	for _, it := range c.interactions[userID] {
		ids = append(ids, it.ItemID)
	}
	return ids, nil
}

func (c *MemoryCatalog) UsersWithLikes(_ context.Context, excludeUser string) (map[string][]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make(map[string][]string)
	for userID, list := range c.interactions {
		if userID == excludeUser {
			continue
		}
		var likes []string
		for _, it := range list {
			if it.IsLike() {
				likes = append(likes, it.ItemID)
			}
		}
		if len(likes) > 0 {
			result[userID] = likes
		}
	}
	return result, nil
}

// recentLocked 从按时间升序的记录中取最近 n 条，返回按时间倒序。
func recentLocked(list []core.Interaction, n int, keep func(core.Interaction) bool) []core.Interaction {
	out := make([]core.Interaction, 0, n)
	for i := len(list) - 1; i >= 0 && (n <= 0 || len(out) < n); i-- {
		if keep(list[i]) {
			out = append(out, list[i])
		}
	}
	return out
}
