package service

import (
	"fmt"
	"time"

	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/filter"
	"github.com/rushteam/playgcn/model"
	"github.com/rushteam/playgcn/pipeline"
	"github.com/rushteam/playgcn/pkg/conv"
	"github.com/rushteam/playgcn/recall"
)

// registerRuntimeBuilders 注册依赖训练结果的 Node：
//
//	recall.embedding: {top_k: 50, metric: inner_product}
//	recall.popular:   {top_k: 20}
//	recall.fanout:    {sources: [{type: embedding, top_k: 50}, {type: popular, top_k: 20}],
//	                   dedup: true, timeout_ms: 200, max_concurrent: 2, merge_strategy: priority}
//	filter.known:     {}
func (r *Recommender) registerRuntimeBuilders(f *pipeline.NodeFactory) {
	f.Register("recall.embedding", func(cfg map[string]any) (pipeline.Node, error) {
		return r.embeddingSource(cfg), nil
	})
	f.Register("recall.popular", func(cfg map[string]any) (pipeline.Node, error) {
		return r.popularSource(cfg), nil
	})
	f.Register("recall.fanout", r.buildFanout)
	f.Register("filter.known", func(map[string]any) (pipeline.Node, error) {
		return &filter.FilterNode{Filters: []filter.Filter{&filter.KnownTracksFilter{Graph: r.graph}}}, nil
	})
}

func (r *Recommender) embeddingSource(cfg map[string]any) *recall.Embedding {
	return &recall.Embedding{
		Vectors:    r.vectors,
		Embeddings: r.result.Embeddings,
		Playlists:  r.index.NumPlaylists(),
		Collection: recall.DefaultTrackCollection,
		TopK:       int(conv.ConfigGetInt64(cfg, "top_k", int64(r.opts.K))),
		Metric:     conv.ConfigGet(cfg, "metric", string(core.MetricInnerProduct)),
	}
}

func (r *Recommender) popularSource(cfg map[string]any) *recall.Popular {
	return &recall.Popular{
		Store:  r.kv,
		Key:    recall.PopularKey,
		TopK:   int(conv.ConfigGetInt64(cfg, "top_k", int64(r.opts.K))),
		Scorer: r.embeddingScore,
	}
}

// embeddingScore 用 z_p · z_t 给其他召回源的曲目打分，与 recall.embedding 同一尺度。
func (r *Recommender) embeddingScore(rctx *core.RecommendContext, it *core.Item) (float64, bool) {
	if rctx == nil {
		return 0, false
	}
	p, t := rctx.PlaylistIndex, it.NodeIndex()
	if p < 0 || p >= r.index.NumPlaylists() || !r.index.IsTrack(t) {
		return 0, false
	}
	return model.Score(r.result.Embeddings, p, t), true
}

func (r *Recommender) buildFanout(cfg map[string]any) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]any)
	if !ok || len(sourcesConfig) == 0 {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for i, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("sources[%d]: expected a map", i)
		}
		switch t := conv.ConfigGet(sourceMap, "type", ""); t {
		case "embedding":
			sources = append(sources, r.embeddingSource(sourceMap))
		case "popular":
			sources = append(sources, r.popularSource(sourceMap))
		default:
			return nil, fmt.Errorf("sources[%d]: unknown source type: %q", i, t)
		}
	}

	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet(cfg, "dedup", true),
		MaxConcurrent: int(conv.ConfigGetInt64(cfg, "max_concurrent", 0)),
	}
	if ms := conv.ConfigGetInt64(cfg, "timeout_ms", 0); ms > 0 {
		fanout.Timeout = time.Duration(ms) * time.Millisecond
	}
	switch s := conv.ConfigGet(cfg, "merge_strategy", "first"); s {
	case "first":
		fanout.MergeStrategy = &recall.FirstMergeStrategy{}
	case "union":
		fanout.MergeStrategy = &recall.UnionMergeStrategy{}
	case "priority":
		fanout.MergeStrategy = &recall.PriorityMergeStrategy{}
	default:
		return nil, fmt.Errorf("unknown merge strategy: %q", s)
	}
	return fanout, nil
}
