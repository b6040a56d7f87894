package recall

import (
	"context"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/pipeline"
	"github.com/rushteam/playgcn/pkg/logging"
	"github.com/rushteam/playgcn/pkg/utils"
)

// LabelRecallPriority 记录召回源在 Fanout.Sources 中的下标，越小优先级越高。
const LabelRecallPriority = "recall_priority"

// MergeStrategy 合并多个召回源的结果。all 按 Sources 顺序拼接。
type MergeStrategy interface {
	Merge(all []*core.Item, dedup bool) []*core.Item
}

// Fanout 是 Recall Node：并发执行多个召回源并合并结果。
// 单个召回源失败或超时只记录日志，不影响其他召回源。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时，0 表示不限制
	MaxConcurrent int           // 最大并发数，0 表示不限制
	MergeStrategy MergeStrategy // 为 nil 时使用 FirstMergeStrategy
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return n.Recall(ctx, rctx)
}

func (n *Fanout) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	log := logging.Ctx(ctx)
	results := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		i, src := i, src
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				log.Warn().Err(err).Str("source", src.Name()).Msg("recall source failed")
				return nil
			}
			for _, it := range items {
				if _, ok := it.Labels[LabelRecallSource]; !ok {
					it.PutLabel(LabelRecallSource, utils.Label{Value: src.Name(), Source: "recall"})
				}
				it.PutLabel(LabelRecallPriority, utils.Label{Value: strconv.Itoa(i), Source: "recall"})
			}
			results[i] = items
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []*core.Item
	for _, items := range results {
		all = append(all, items...)
	}
	strategy := n.MergeStrategy
	if strategy == nil {
		strategy = &FirstMergeStrategy{}
	}
	return strategy.Merge(all, n.Dedup), nil
}

// FirstMergeStrategy 按 ID 去重，保留第一次出现的曲目并合并后来者的 Label。
type FirstMergeStrategy struct{}

func (s *FirstMergeStrategy) Merge(all []*core.Item, dedup bool) []*core.Item {
	if !dedup {
		return all
	}
	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if old, ok := seen[it.ID]; ok {
			for k, v := range it.Labels {
				old.PutLabel(k, v)
			}
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}

// UnionMergeStrategy 合并全部召回源的结果。dedup 为 true 时相同 ID 只保留分数最高的一条，
// 并合并其余来源的 Label，输出顺序为各 ID 首次出现的顺序；dedup 为 false 时原样保留。
type UnionMergeStrategy struct{}

func (s *UnionMergeStrategy) Merge(all []*core.Item, dedup bool) []*core.Item {
	if !dedup {
		return all
	}
	pos := make(map[string]int, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		i, ok := pos[it.ID]
		if !ok {
			pos[it.ID] = len(out)
			out = append(out, it)
			continue
		}
		keep, drop := out[i], it
		if it.Score > keep.Score {
			keep, drop = it, out[i]
		}
		for k, v := range drop.Labels {
			keep.PutLabel(k, v)
		}
		out[i] = keep
	}
	return out
}

// PriorityMergeStrategy 相同 ID 时保留优先级更高（下标更小）的召回源的曲目，分数取该源的分数。
// 输出顺序为各 ID 首次出现的顺序。
type PriorityMergeStrategy struct{}

func (s *PriorityMergeStrategy) Merge(all []*core.Item, dedup bool) []*core.Item {
	if !dedup {
		return all
	}
	pos := make(map[string]int, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		i, ok := pos[it.ID]
		if !ok {
			pos[it.ID] = len(out)
			out = append(out, it)
			continue
		}
		if priority(it) < priority(out[i]) {
			out[i] = it
		}
	}
	return out
}

func priority(it *core.Item) int {
	lbl, ok := it.Labels[LabelRecallPriority]
	if !ok {
		return math.MaxInt
	}
	p, err := strconv.Atoi(lbl.Value)
	if err != nil {
		return math.MaxInt
	}
	return p
}

var _ pipeline.Node = (*Fanout)(nil)
