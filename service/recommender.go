// Package service 把数据集、建图、特征、GCN 训练与推荐 pipeline 组装成一个 Recommender。
//
//	rows, _, _ := dataset.Load(ctx, "playlists.csv")
//	rec, err := service.Build(ctx, rows, service.DefaultOptions())
//	top, err := rec.TopK(ctx, 0, 10)
package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/playgcn/config"
	_ "github.com/rushteam/playgcn/config/builders"
	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/dataset"
	"github.com/rushteam/playgcn/feature"
	"github.com/rushteam/playgcn/graph"
	"github.com/rushteam/playgcn/model"
	"github.com/rushteam/playgcn/pipeline"
	"github.com/rushteam/playgcn/pkg/logging"
	"github.com/rushteam/playgcn/recall"
	"github.com/rushteam/playgcn/rerank"
	"github.com/rushteam/playgcn/store"
)

// Recommendation 是一条推荐结果。
type Recommendation struct {
	TrackID   string
	NodeIndex int
	Score     float64
	Name      string
	Artist    string
}

// Summary 是构建过程的统计。
type Summary struct {
	Playlists        int
	Tracks           int
	Edges            int
	Entries          int
	SkippedRows      int
	FeatureConflicts int
	Epochs           int
	FinalLoss        float64
	TrainDuration    time.Duration
}

// Recommender 持有训练好的 Embedding 与推荐 pipeline，构建完成后只读，可并发使用。
type Recommender struct {
	opts     Options
	index    *graph.Index
	graph    *graph.Graph
	features *mat.Dense // 原始特征矩阵，未标准化
	stats    feature.AssembleStats
	result   *model.Result
	vectors  *store.MemoryVectorService
	kv       *store.MemoryStore
	pipeline *pipeline.Pipeline
}

// Build 依次执行：编号 → 建图 → 特征 → 标准化 → 训练 → 曲目向量入库 → 热度入库 → 组装 pipeline。
func Build(ctx context.Context, rows []dataset.Row, opts Options) (*Recommender, error) {
	ctx = logging.WithRun(ctx)
	log := logging.Ctx(ctx).With().Str("component", "recommender").Logger()
	if opts.K <= 0 {
		return nil, core.InvalidInput(core.ModuleRecommend, "recommend: k must be positive, got %d", opts.K)
	}

	idx := graph.Assign(rows)
	g := graph.Build(rows, idx)
	if g.Skipped > 0 {
		log.Debug().Int("skipped", g.Skipped).Msg("rows with empty playlist or track id skipped")
	}
	opts.Metrics.ObserveSkipped("unmapped", g.Skipped)
	opts.Metrics.ObserveGraph(idx.NumPlaylists(), idx.NumTracks(), g.NumEdges())
	log.Info().
		Int("playlists", idx.NumPlaylists()).
		Int("tracks", idx.NumTracks()).
		Int("edges", g.NumEdges()).
		Msg("graph built")

	raw, stats, err := feature.Assemble(rows, idx)
	if err != nil {
		return nil, fmt.Errorf("assemble features: %w", err)
	}
	if stats.Conflicts > 0 {
		log.Debug().Int("conflicts", stats.Conflicts).Msg("tracks with conflicting audio features, first occurrence kept")
	}

	scaler, err := feature.NewScaler(opts.Scaler)
	if err != nil {
		return nil, err
	}
	lo, hi := idx.TrackRange()
	scaler.Fit(raw, lo, hi)
	x := scaler.Transform(raw)

	adj := g.Normalized()
	res, err := model.NewTrainer(opts.Train, model.WithMetrics(opts.Metrics)).Train(ctx, adj, x, g, idx)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	r := &Recommender{
		opts:     opts,
		index:    idx,
		graph:    g,
		features: raw,
		stats:    stats,
		result:   res,
		vectors:  store.NewMemoryVectorService(),
		kv:       store.NewMemoryStore(),
	}
	meta := firstSeenTracks(rows)
	if err := r.indexTracks(ctx, meta); err != nil {
		return nil, err
	}
	if err := r.loadPopularity(ctx, meta); err != nil {
		return nil, err
	}
	if r.pipeline, err = r.buildPipeline(); err != nil {
		return nil, err
	}
	return r, nil
}

// BuildFromFile 读取 CSV 后调用 Build。
func BuildFromFile(ctx context.Context, path string, opts Options, readOpts ...dataset.Option) (*Recommender, error) {
	rows, stats, err := dataset.Load(ctx, path, readOpts...)
	if err != nil {
		return nil, err
	}
	opts.Metrics.ObserveSkipped("malformed", stats.Malformed)
	return Build(ctx, rows, opts)
}

func firstSeenTracks(rows []dataset.Row) map[string]dataset.Row {
	out := make(map[string]dataset.Row)
	for _, row := range rows {
		if row.TrackID == "" {
			continue
		}
		if _, ok := out[row.TrackID]; !ok {
			out[row.TrackID] = row
		}
	}
	return out
}

func trackMetadata(node int, row dataset.Row) map[string]any {
	return map[string]any{
		core.MetaNodeIndex: node,
		core.MetaName:      row.TrackName,
		core.MetaArtist:    row.TrackArtist,
		core.MetaAlbum:     row.TrackAlbumName,
		core.MetaGenre:     row.PlaylistGenre,
	}
}

// indexTracks 按节点编号顺序写入曲目 Embedding，保证同分时编号小的在前。
func (r *Recommender) indexTracks(ctx context.Context, meta map[string]dataset.Row) error {
	_, dim := r.result.Embeddings.Dims()
	if err := r.vectors.CreateCollection(ctx, &core.VectorCreateCollectionRequest{
		Name:      recall.DefaultTrackCollection,
		Dimension: dim,
		Metric:    string(core.MetricInnerProduct),
	}); err != nil {
		return err
	}

	lo, hi := r.index.TrackRange()
	req := &core.VectorInsertRequest{
		Collection: recall.DefaultTrackCollection,
		IDs:        make([]string, 0, hi-lo),
		Vectors:    make([][]float64, 0, hi-lo),
		Metadata:   make([]map[string]any, 0, hi-lo),
	}
	for node := lo; node < hi; node++ {
		key, _ := r.index.TrackKey(node)
		req.IDs = append(req.IDs, key)
		req.Vectors = append(req.Vectors, mat.Row(nil, node, r.result.Embeddings))
		req.Metadata = append(req.Metadata, trackMetadata(node, meta[key]))
	}
	return r.vectors.Insert(ctx, req)
}

// loadPopularity 写入曲目热度有序集合与曲目元数据哈希，供 recall.popular 使用。
func (r *Recommender) loadPopularity(ctx context.Context, meta map[string]dataset.Row) error {
	for _, key := range r.index.TrackKeys() {
		row := meta[key]
		node, _ := r.index.Track(key)
		if err := r.kv.ZAdd(ctx, recall.PopularKey, float64(row.TrackPopularity), key); err != nil {
			return err
		}
		for field, v := range trackMetadata(node, row) {
			var b []byte
			switch val := v.(type) {
			case int:
				b = []byte(strconv.Itoa(val))
			case string:
				b = []byte(val)
			}
			if err := r.kv.HSet(ctx, recall.TrackMetaKey(key), field, b); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Recommender) buildPipeline() (*pipeline.Pipeline, error) {
	factory := config.DefaultFactory()
	r.registerRuntimeBuilders(factory)

	if r.opts.PipelinePath == "" {
		return &pipeline.Pipeline{
			Name: "default",
			Nodes: []pipeline.Node{
				r.embeddingSource(nil),
				&rerank.TopNNode{N: r.opts.K},
			},
		}, nil
	}

	cfg, err := pipeline.LoadFromYAML(r.opts.PipelinePath)
	if err != nil {
		return nil, fmt.Errorf("load pipeline %s: %w", r.opts.PipelinePath, err)
	}
	if err := config.ValidatePipelineConfig(cfg, factory); err != nil {
		return nil, err
	}
	return cfg.BuildPipeline(factory)
}

// TopK 对歌单节点 playlistIndex 做精确的 GCN 排序：按 z_p · z_t 降序返回 min(k, T) 首不同曲目，
// 同分时节点编号小的在前。
func (r *Recommender) TopK(ctx context.Context, playlistIndex, k int) ([]Recommendation, error) {
	if k <= 0 {
		return nil, core.InvalidInput(core.ModuleRecommend, "recommend: k must be positive, got %d", k)
	}
	rctx := core.NewRecommendContext("", playlistIndex)
	if key, ok := r.index.PlaylistKey(playlistIndex); ok {
		rctx.PlaylistID = key
	}
	src := r.embeddingSource(nil)
	src.TopK = k
	items, err := src.Recall(ctx, rctx)
	if err != nil {
		return nil, err
	}
	return toRecommendations(items), nil
}

// Recommend 按歌单 ID 执行配置的 pipeline，最多返回 k 条。
func (r *Recommender) Recommend(ctx context.Context, playlistID string, k int) ([]Recommendation, error) {
	recs, err := r.recommend(ctx, playlistID, k)
	if err != nil {
		r.opts.Metrics.ObserveRecommend("error")
		return nil, err
	}
	r.opts.Metrics.ObserveRecommend("ok")
	return recs, nil
}

func (r *Recommender) recommend(ctx context.Context, playlistID string, k int) ([]Recommendation, error) {
	if k <= 0 {
		return nil, core.InvalidInput(core.ModuleRecommend, "recommend: k must be positive, got %d", k)
	}
	p, ok := r.index.Playlist(playlistID)
	if !ok {
		return nil, core.NotFound(core.ModuleRecommend, "recommend: playlist %q not found", playlistID)
	}
	rctx := core.NewRecommendContext(playlistID, p)
	rctx.Params[core.ParamK] = k

	items, err := r.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	if len(items) > k {
		items = items[:k]
	}
	return toRecommendations(items), nil
}

// BatchResult 是 RecommendBatch 中单个歌单的结果。
type BatchResult struct {
	PlaylistID string
	Items      []Recommendation
	Err        error
}

// RecommendBatch 并发为多个歌单推荐，结果顺序与 playlistIDs 一致。
// 单个歌单的错误记录在 BatchResult.Err 中，ctx 取消时返回 ctx.Err()。
func (r *Recommender) RecommendBatch(ctx context.Context, playlistIDs []string, k int) ([]BatchResult, error) {
	out := make([]BatchResult, len(playlistIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	if r.opts.Concurrency > 0 {
		eg.SetLimit(r.opts.Concurrency)
	}
	for i, id := range playlistIDs {
		i, id := i, id
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			items, err := r.Recommend(egCtx, id, k)
			out[i] = BatchResult{PlaylistID: id, Items: items, Err: err}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func toRecommendations(items []*core.Item) []Recommendation {
	out := make([]Recommendation, 0, len(items))
	for _, it := range items {
		rec := Recommendation{TrackID: it.ID, NodeIndex: it.NodeIndex(), Score: it.Score}
		rec.Name, _ = it.Meta[core.MetaName].(string)
		rec.Artist, _ = it.Meta[core.MetaArtist].(string)
		out = append(out, rec)
	}
	return out
}

// Summary 返回构建统计。
func (r *Recommender) Summary() Summary {
	return Summary{
		Playlists:        r.index.NumPlaylists(),
		Tracks:           r.index.NumTracks(),
		Edges:            r.graph.NumEdges(),
		Entries:          r.graph.NumEntries(),
		SkippedRows:      r.graph.Skipped,
		FeatureConflicts: r.stats.Conflicts,
		Epochs:           len(r.result.Losses),
		FinalLoss:        r.result.FinalLoss(),
		TrainDuration:    r.result.Duration,
	}
}

// Index 返回节点编号表。
func (r *Recommender) Index() *graph.Index { return r.index }

// Graph 返回二部图，含正样本边与跳过的行数。
func (r *Recommender) Graph() *graph.Graph { return r.graph }

// Features 返回未缩放的原始特征矩阵。
func (r *Recommender) Features() *mat.Dense { return r.features }

// Embeddings 返回全部节点的最终 Embedding Z。
func (r *Recommender) Embeddings() *mat.Dense { return r.result.Embeddings }

// Losses 返回每个 epoch 的训练损失。
func (r *Recommender) Losses() []float64 { return r.result.Losses }

// Pipeline 返回 Recommend 使用的 pipeline。
func (r *Recommender) Pipeline() *pipeline.Pipeline { return r.pipeline }
