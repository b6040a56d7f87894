package rerank

import (
	"context"
	"math"
	"strconv"

	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/pipeline"
	"github.com/rushteam/playgcn/pkg/utils"
)

// Diversity 限制同一分组（默认按艺人）的曲目数量。
// 分组取值优先级：Labels[Key].Value，其次 Meta[Key]（string）。没有分组的曲目不受限制。
type Diversity struct {
	Key       string // 默认 core.MetaArtist
	MaxPerKey int    // 默认 1
	// Demote 为 true 时超出配额的曲目移到末尾而不是丢弃。
	// 被降权曲目的分数会整体平移到保留曲目的最低分之下（相对顺序不变），
	// 原分数记录在 Label diversity_demoted 中，后续 rerank.topn 重新排序也不会把它们提前。
	Demote bool
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.Key
	if key == "" {
		key = core.MetaArtist
	}
	limit := n.MaxPerKey
	if limit <= 0 {
		limit = 1
	}

	counts := make(map[string]int, len(items))
	out := make([]*core.Item, 0, len(items))
	var overflow []*core.Item

	for _, it := range items {
		if it == nil {
			continue
		}
		group := groupOf(it, key)
		if group == "" {
			out = append(out, it)
			continue
		}
		if counts[group] >= limit {
			if n.Demote {
				overflow = append(overflow, it)
			}
			continue
		}
		counts[group]++
		out = append(out, it)
	}
	demote(out, overflow)
	return append(out, overflow...), nil
}

// LabelDemoted 标记被 Diversity 降权的曲目，Value 为降权前的分数。
const LabelDemoted = "diversity_demoted"

func demote(kept, overflow []*core.Item) {
	if len(kept) == 0 || len(overflow) == 0 {
		return
	}
	floor := kept[0].Score
	for _, it := range kept[1:] {
		floor = math.Min(floor, it.Score)
	}
	top := overflow[0].Score
	for _, it := range overflow[1:] {
		top = math.Max(top, it.Score)
	}
	shift := 0.0
	if top >= floor {
		shift = top - floor + 1
	}
	for _, it := range overflow {
		it.PutLabel(LabelDemoted, utils.Label{Value: strconv.FormatFloat(it.Score, 'g', -1, 64), Source: "rerank.diversity"})
		it.Score -= shift
	}
}

func groupOf(it *core.Item, key string) string {
	if lbl, ok := it.Labels[key]; ok && lbl.Value != "" {
		return lbl.Value
	}
	if s, ok := it.Meta[key].(string); ok {
		return s
	}
	return ""
}

var _ pipeline.Node = (*Diversity)(nil)
