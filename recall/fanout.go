package recall

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pipeline"
	"github.com/rushteam/swipekit/pkg/utils"
)

// MergeStrategy 为扇出结果的合并策略。
type MergeStrategy string

const (
	// MergeUnion 保留全部结果含同 ID 重复项，交给混合排序按方法融合。
	MergeUnion MergeStrategy = "union"
	// MergeFirst 按 ID 去重，保留先完成的召回源给出的条目。
	MergeFirst MergeStrategy = "first"
)

// Fanout 并发执行多个召回源并合并结果。
// 单个源失败或超时不中断其余源；全部失败时返回空候选，由上层降级。
type Fanout struct {
	Sources       []Source
	Timeout       time.Duration // 单个召回源的超时，0 表示不限
	MaxConcurrent int           // 最大并发数，0 表示不限
	Merge         MergeStrategy // 默认 MergeUnion
}

var _ pipeline.Node = (*Fanout)(nil)

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	var (
		mu  sync.Mutex
		all []*core.Item
	)
	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for _, src := range n.Sources {
		s := src
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := s.Recall(recallCtx, rctx)
			if err != nil {
				// 单源失败不影响其余召回源
				return nil
			}
			for _, it := range items {
				it.AddLabel(s.Name(), "recall")
			}

			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if n.Merge == MergeFirst {
		return mergeFirst(all), nil
	}
	return all, nil
}

// mergeFirst 按 ID 去重，保留首个出现的条目并合并后到者的标签。
func mergeFirst(all []*core.Item) []*core.Item {
	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if old, ok := seen[it.ID]; ok {
			for _, l := range it.Labels {
				old.Labels = utils.MergeLabel(old.Labels, l)
			}
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}
