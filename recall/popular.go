package recall

import (
	"context"
	"strconv"

	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/pipeline"
	"github.com/rushteam/playgcn/pkg/utils"
)

// PopularKey 是曲目热度有序集合的默认 key。
const PopularKey = "popularity:tracks"

// TrackMetaKey 返回曲目元数据哈希的 key。
func TrackMetaKey(trackID string) string {
	return "track:" + trackID
}

// Scorer 把召回的曲目映射到与其他召回源一致的分数尺度，ok 为 false 时保留原分数。
type Scorer func(rctx *core.RecommendContext, it *core.Item) (score float64, ok bool)

// Popular 是热度召回：从 KeyValueStore 的有序集合读取热度最高的曲目，
// 作为 Embedding 召回的补充或冷启动兜底。
// 曲目元数据从 TrackMetaKey 哈希中读取，node_index 字段会被解析为 int。
// 热度写入 Meta[core.MetaPopularity]；Scorer 为空时 Score 即热度，
// 与 Embedding 在 Fanout 中混用时应设置 Scorer。
// 请求参数 core.ParamK 大于 TopK 时按 ParamK 召回。
type Popular struct {
	Store  core.KeyValueStore
	Key    string
	TopK   int
	Scorer Scorer
}

func (r *Popular) Name() string        { return "recall.popular" }
func (r *Popular) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Popular) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Popular) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	key := r.Key
	if key == "" {
		key = PopularKey
	}
	topK := r.TopK
	if k, ok := rctx.ParamInt(core.ParamK); ok && topK > 0 && k > topK {
		topK = k
	}
	stop := int64(-1)
	if topK > 0 {
		stop = int64(topK) - 1
	}
	members, err := r.Store.ZRange(ctx, key, 0, stop)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(members))
	for _, id := range members {
		it := core.NewItem(id)
		if score, err := r.Store.ZScore(ctx, key, id); err == nil {
			it.Score = score
			it.Meta[core.MetaPopularity] = score
		}
		fields, err := r.Store.HGetAll(ctx, TrackMetaKey(id))
		if err != nil {
			return nil, err
		}
		for k, v := range fields {
			if k == core.MetaNodeIndex {
				if n, err := strconv.Atoi(string(v)); err == nil {
					it.Meta[k] = n
				}
				continue
			}
			it.Meta[k] = string(v)
		}
		if r.Scorer != nil {
			if score, ok := r.Scorer(rctx, it); ok {
				it.Score = score
			}
		}
		it.PutLabel(LabelRecallSource, utils.Label{Value: r.Name(), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

var (
	_ Source        = (*Popular)(nil)
	_ pipeline.Node = (*Popular)(nil)
)
