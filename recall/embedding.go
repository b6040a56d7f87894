package recall

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/pipeline"
	"github.com/rushteam/playgcn/pkg/utils"
)

// DefaultTrackCollection 是曲目 Embedding 所在的向量集合。
const DefaultTrackCollection = "tracks"

// Embedding 是 GCN 召回：取歌单节点的 Embedding，在曲目集合中按内积检索 TopK。
// 结果按分数降序，同分时节点编号小的在前，最多返回 min(TopK, 曲目数) 个不同曲目。
// 请求参数 core.ParamK 大于 TopK 时按 ParamK 召回。
type Embedding struct {
	Vectors    core.VectorService
	Embeddings *mat.Dense // 全部节点的 Embedding，行号即节点编号
	Playlists  int        // 歌单数 P，合法的歌单节点为 [0, P)
	Collection string
	TopK       int
	Metric     string
}

func (r *Embedding) Name() string        { return "recall.embedding" }
func (r *Embedding) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Embedding) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Embedding) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil {
		return nil, core.InvalidInput(core.ModuleRecommend, "recall.embedding: nil recommend context")
	}
	p := rctx.PlaylistIndex
	if p < 0 || p >= r.Playlists {
		return nil, core.InvalidInput(core.ModuleRecommend, "recall.embedding: playlist index %d out of range [0,%d)", p, r.Playlists)
	}

	collection := r.Collection
	if collection == "" {
		collection = DefaultTrackCollection
	}
	metric := r.Metric
	if metric == "" {
		metric = string(core.MetricInnerProduct)
	}

	topK := r.TopK
	if k, ok := rctx.ParamInt(core.ParamK); ok && k > topK {
		topK = k
	}

	res, err := r.Vectors.Search(ctx, &core.VectorSearchRequest{
		Collection: collection,
		Vector:     mat.Row(nil, p, r.Embeddings),
		TopK:       topK,
		Metric:     metric,
	})
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(res.Items))
	for _, hit := range res.Items {
		it := core.NewItem(hit.ID)
		it.Score = hit.Score
		for k, v := range hit.Metadata {
			it.Meta[k] = v
		}
		it.PutLabel(LabelRecallSource, utils.Label{Value: r.Name(), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

var (
	_ Source        = (*Embedding)(nil)
	_ pipeline.Node = (*Embedding)(nil)
)
