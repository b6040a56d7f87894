package filter

import (
	"context"

	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/pipeline"
	"github.com/rushteam/playgcn/pkg/logging"
	"github.com/rushteam/playgcn/pkg/utils"
)

// FilterNode 组合多个 Filter，任一 Filter 返回 true 即移除该曲目。
// Filter 出错时记录日志并保留曲目。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	log := logging.Ctx(ctx)
	out := make([]*core.Item, 0, len(items))
	filtered := 0

	for _, item := range items {
		if item == nil {
			continue
		}

		reason := ""
		for _, f := range n.Filters {
			drop, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				log.Warn().Err(err).Str("filter", f.Name()).Str("track_id", item.ID).Msg("filter failed, keeping item")
				continue
			}
			if drop {
				reason = f.Name()
				break
			}
		}

		if reason != "" {
			filtered++
			item.PutLabel("filtered", utils.Label{Value: "true", Source: reason})
			continue
		}
		out = append(out, item)
	}

	if filtered > 0 {
		log.Debug().Int("filtered", filtered).Int("kept", len(out)).Msg("filter node done")
	}
	return out, nil
}

var _ pipeline.Node = (*FilterNode)(nil)
