package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/pipeline"
)

// TopNNode 按分数降序稳定排序后截取前 N 个曲目，同分时保持输入顺序。
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.Embedding{...},
//	        &rerank.Diversity{MaxPerKey: 2},
//	        &rerank.TopNNode{N: 10},
//	    },
//	}
type TopNNode struct {
	// N <= 0 时只排序不截断；请求参数 core.ParamK 优先于 N
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if k, ok := rctx.ParamInt(core.ParamK); ok {
		limit = k
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ pipeline.Node = (*TopNNode)(nil)
