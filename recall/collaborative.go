package recall

import (
	"context"
	"sort"

	"github.com/rushteam/swipekit/core"
)

// CollaborativeSource 基于用户-用户协同过滤的召回源。
// 以点赞集合的 Jaccard 相似度找相似用户，把相似用户点赞过
// 而当前用户未滑动过的商品作为候选。
type CollaborativeSource struct {
	Interactions core.InteractionStore

	// MinSimilarity 为相似用户的相似度下限，默认 0.3。
	MinSimilarity float64
	// MaxNeighbors 为参与投票的相似用户上限，默认 10。
	MaxNeighbors int
}

var _ Source = (*CollaborativeSource)(nil)

func (s *CollaborativeSource) Name() string { return MethodCollaborative }

func (s *CollaborativeSource) minSimilarity() float64 {
	if s.MinSimilarity > 0 {
		return s.MinSimilarity
	}
	return 0.3
}

func (s *CollaborativeSource) maxNeighbors() int {
	if s.MaxNeighbors > 0 {
		return s.MaxNeighbors
	}
	return 10
}

func (s *CollaborativeSource) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	myLikes, err := s.Interactions.LikedItemIDs(ctx, rctx.UserID)
	if err != nil {
		return nil, core.WrapDomainError("recall", core.ErrCodeDependencyFailure, "读取点赞集合失败", err)
	}
	if len(myLikes) == 0 {
		return nil, nil // 冷启动用户没有协同信号
	}
	mine := toSet(myLikes)

	others, err := s.Interactions.UsersWithLikes(ctx, rctx.UserID)
	if err != nil {
		return nil, core.WrapDomainError("recall", core.ErrCodeDependencyFailure, "读取用户点赞失败", err)
	}

	type neighbor struct {
		userID string
		sim    float64
		likes  []string
	}
	neighbors := make([]neighbor, 0, len(others))
	for userID, likes := range others {
		sim := jaccard(mine, toSet(likes))
		if sim >= s.minSimilarity() {
			neighbors = append(neighbors, neighbor{userID: userID, sim: sim, likes: likes})
		}
	}
	if len(neighbors) == 0 {
		return nil, nil
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].sim != neighbors[j].sim {
			return neighbors[i].sim > neighbors[j].sim
		}
		return neighbors[i].userID < neighbors[j].userID
	})
	if len(neighbors) > s.maxNeighbors() {
		neighbors = neighbors[:s.maxNeighbors()]
	}

	// 候选得分为点赞过该商品的相似用户相似度之和，最后除以最大值归一到 (0, 1]
	exclude := excludeSet(rctx)
	votes := make(map[string]float64)
	var max float64
	for _, nb := range neighbors {
		for _, itemID := range nb.likes {
			if _, liked := mine[itemID]; liked {
				continue
			}
			if _, excluded := exclude[itemID]; excluded {
				continue
			}
			votes[itemID] += nb.sim
			if votes[itemID] > max {
				max = votes[itemID]
			}
		}
	}
	if len(votes) == 0 {
		return nil, nil
	}

	items := make([]*core.Item, 0, len(votes))
	for itemID, score := range votes {
		items = append(items, core.NewItem(itemID).WithScore(score/max))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// jaccard 计算两个集合的 Jaccard 相似度：|A∩B| / |A∪B|。
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for id := range a {
		if _, ok := b[id]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
