package model

import (
	"context"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/graph"
	"github.com/rushteam/playgcn/pkg/logging"
	"github.com/rushteam/playgcn/pkg/metrics"
)

// maxNegativeTries 是负采样命中已知边时的最大重试次数。
const maxNegativeTries = 100

// TrainConfig 训练超参数。
type TrainConfig struct {
	Hidden        int     `koanf:"hidden" validate:"gt=0"`
	Out           int     `koanf:"out" validate:"gt=0"`
	Epochs        int     `koanf:"epochs" validate:"gt=0"`
	LearningRate  float64 `koanf:"learning_rate" validate:"gt=0"`
	NegativeRatio int     `koanf:"negative_ratio" validate:"gte=1"`
	LogEvery      int     `koanf:"log_every" validate:"gte=0"`
	Seed          int64   `koanf:"seed"`
}

// DefaultTrainConfig 返回默认超参数：64 隐层、32 维输出、100 epoch、lr=0.01。
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Hidden:        64,
		Out:           32,
		Epochs:        100,
		LearningRate:  0.01,
		NegativeRatio: 1,
		LogEvery:      10,
		Seed:          42,
	}
}

// Sample 是一个带标签的 (歌单, 曲目) 样本，Label 为 1 表示正样本。
type Sample struct {
	Playlist int
	Track    int
	Label    float64
}

// Result 训练结果。
type Result struct {
	Model      *GCN
	Losses     []float64  // 每个 epoch 的平均损失
	Embeddings *mat.Dense // 训练后的节点 Embedding（NumNodes × Out）
	Duration   time.Duration
}

// FinalLoss 返回最后一个 epoch 的损失。
func (r *Result) FinalLoss() float64 {
	if len(r.Losses) == 0 {
		return math.NaN()
	}
	return r.Losses[len(r.Losses)-1]
}

// Trainer 全图批量训练 GCN。
type Trainer struct {
	cfg     TrainConfig
	metrics *metrics.Training
}

// TrainerOption 训练器选项。
type TrainerOption func(*Trainer)

// WithMetrics 设置训练指标，nil 表示不记录。
func WithMetrics(m *metrics.Training) TrainerOption {
	return func(t *Trainer) {
		t.metrics = m
	}
}

// NewTrainer 用 cfg 创建训练器，opts 可附加指标等依赖。
func NewTrainer(cfg TrainConfig, opts ...TrainerOption) *Trainer {
	t := &Trainer{cfg: cfg}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Train 在整张图上训练 GCN。
//
// 每个 epoch：前向传播 → 采样负样本 → 带 logits 的二元交叉熵 → 反向传播 → Adam 更新。
// 正样本为 g.Pairs，负样本从 [0,P) × [P,P+T) 中均匀采样并拒绝已知边。
func (t *Trainer) Train(ctx context.Context, adj *graph.Adjacency, x *mat.Dense, g *graph.Graph, idx *graph.Index) (*Result, error) {
	if len(g.Pairs) == 0 || idx.NumPlaylists() == 0 || idx.NumTracks() == 0 {
		return nil, core.InvalidInput(core.ModuleModel, "model: graph has no positive edges")
	}
	rows, in := x.Dims()
	if rows != adj.N() {
		return nil, core.InvalidInput(core.ModuleModel, "model: feature rows %d do not match %d nodes", rows, adj.N())
	}
	if t.cfg.Epochs <= 0 || t.cfg.Hidden <= 0 || t.cfg.Out <= 0 {
		return nil, core.InvalidInput(core.ModuleModel, "model: epochs, hidden and out must be positive")
	}
	ratio := t.cfg.NegativeRatio
	if ratio < 1 {
		ratio = 1
	}

	log := logging.Ctx(ctx).With().Str("component", "trainer").Logger()
	rng := rand.New(rand.NewSource(t.cfg.Seed)) //nolint:gosec // 训练采样不需要密码学随机数
	gcn := NewGCN(in, t.cfg.Hidden, t.cfg.Out, rng)
	opt := NewAdam(t.cfg.LearningRate)
	sampler := newNegativeSampler(g, idx, rng)

	positives := make([]Sample, len(g.Pairs))
	for i, e := range g.Pairs {
		positives[i] = Sample{Playlist: e.Playlist, Track: e.Track, Label: 1}
	}

	start := time.Now()
	res := &Result{Model: gcn, Losses: make([]float64, 0, t.cfg.Epochs)}
	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		epochStart := time.Now()

		acts := gcn.Forward(adj, x)
		samples := append(positives[:len(positives):len(positives)], sampler.sample(ratio*len(positives))...)
		loss, dZ := BCEWithLogits(acts.Z, samples)
		grads := gcn.Backward(adj, acts, dZ)
		opt.Step(gcn.Params(), grads.List())

		res.Losses = append(res.Losses, loss)
		t.metrics.ObserveEpoch(loss, time.Since(epochStart).Seconds())
		if epoch == t.cfg.Epochs || (t.cfg.LogEvery > 0 && epoch%t.cfg.LogEvery == 0) {
			log.Info().Int("epoch", epoch).Float64("loss", loss).Msg("training")
		}
	}

	res.Embeddings = gcn.Embed(adj, x)
	res.Duration = time.Since(start)
	log.Info().
		Int("epochs", t.cfg.Epochs).
		Float64("final_loss", res.FinalLoss()).
		Dur("duration", res.Duration).
		Msg("training finished")
	return res, nil
}

// BCEWithLogits 计算样本上的平均二元交叉熵，并返回对 Z 的梯度。
// 样本得分 s = z_p · z_t，dL/ds = (σ(s) - y) / n。
func BCEWithLogits(z *mat.Dense, samples []Sample) (float64, *mat.Dense) {
	r, c := z.Dims()
	dZ := mat.NewDense(r, c, nil)
	if len(samples) == 0 {
		return 0, dZ
	}
	n := float64(len(samples))
	var total float64
	for _, s := range samples {
		zp := z.RawRowView(s.Playlist)
		zt := z.RawRowView(s.Track)
		logit := Score(z, s.Playlist, s.Track)
		total += math.Max(logit, 0) - logit*s.Label + math.Log1p(math.Exp(-math.Abs(logit)))

		g := (sigmoid(logit) - s.Label) / n
		dp := dZ.RawRowView(s.Playlist)
		dt := dZ.RawRowView(s.Track)
		for j := 0; j < c; j++ {
			dp[j] += g * zt[j]
			dt[j] += g * zp[j]
		}
	}
	return total / n, dZ
}

func sigmoid(v float64) float64 {
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}

type negativeSampler struct {
	g        *graph.Graph
	numP     int
	lo, numT int
	rng      *rand.Rand
}

func newNegativeSampler(g *graph.Graph, idx *graph.Index, rng *rand.Rand) *negativeSampler {
	lo, _ := idx.TrackRange()
	return &negativeSampler{g: g, numP: idx.NumPlaylists(), lo: lo, numT: idx.NumTracks(), rng: rng}
}

// sample 采样 n 个负样本。重试耗尽仍命中已知边的抽样被丢弃。
func (s *negativeSampler) sample(n int) []Sample {
	out := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		for try := 0; try < maxNegativeTries; try++ {
			p := s.rng.Intn(s.numP)
			t := s.lo + s.rng.Intn(s.numT)
			if !s.g.HasEdge(p, t) {
				out = append(out, Sample{Playlist: p, Track: t, Label: 0})
				break
			}
		}
	}
	return out
}
