package filter

import (
	"context"

	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/graph"
)

// KnownTracksFilter 过滤歌单中已经包含的曲目（图中已有的 歌单-曲目 边）。
type KnownTracksFilter struct {
	Graph *graph.Graph
}

func (f *KnownTracksFilter) Name() string {
	return "filter.known"
}

func (f *KnownTracksFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Graph == nil || rctx == nil {
		return false, nil
	}
	node := item.NodeIndex()
	if node < 0 {
		return false, nil
	}
	return f.Graph.HasEdge(rctx.PlaylistIndex, node), nil
}
