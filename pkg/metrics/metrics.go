// Package metrics 定义训练与推荐的 Prometheus 指标。
//
// 指标注册到调用方传入的 Registerer 上（默认进程内独立 registry），
// 不暴露 HTTP 端点；需要时可用 prometheus.WriteToTextfile 导出给 node_exporter。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "playgcn"

// Training 是一次构建/训练过程的指标集合。
type Training struct {
	Epochs        prometheus.Counter
	Loss          prometheus.Gauge
	EpochDuration prometheus.Histogram
	Nodes         *prometheus.GaugeVec
	Edges         prometheus.Gauge
	SkippedRows   *prometheus.CounterVec
	Recommend     *prometheus.CounterVec
}

// NewTraining 创建并注册训练指标。reg 为 nil 时只创建不注册（用于测试或禁用场景）。
func NewTraining(reg prometheus.Registerer) *Training {
	m := &Training{
		Epochs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "train_epochs_total",
			Help:      "Number of completed training epochs",
		}),
		Loss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "train_loss",
			Help:      "Binary cross-entropy loss of the most recent epoch",
		}),
		EpochDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "train_epoch_duration_seconds",
			Help:      "Duration of one full-batch training epoch",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		Nodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Number of graph nodes by kind",
		}, []string{"kind"}),
		Edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Number of undirected playlist-track edges",
		}),
		SkippedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_skipped_rows_total",
			Help:      "Rows that produced no edge, by reason",
		}, []string{"reason"}),
		Recommend: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_requests_total",
			Help:      "Recommendation requests by outcome",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.Epochs, m.Loss, m.EpochDuration, m.Nodes, m.Edges, m.SkippedRows, m.Recommend)
	}
	return m
}

// ObserveGraph 记录图规模。
func (m *Training) ObserveGraph(playlists, tracks, edges int) {
	if m == nil {
		return
	}
	m.Nodes.WithLabelValues("playlist").Set(float64(playlists))
	m.Nodes.WithLabelValues("track").Set(float64(tracks))
	m.Edges.Set(float64(edges))
}

// ObserveEpoch 记录一个 epoch 的损失与耗时。
func (m *Training) ObserveEpoch(loss, seconds float64) {
	if m == nil {
		return
	}
	m.Epochs.Inc()
	m.Loss.Set(loss)
	m.EpochDuration.Observe(seconds)
}

// ObserveSkipped 记录被跳过的行数。
func (m *Training) ObserveSkipped(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SkippedRows.WithLabelValues(reason).Add(float64(n))
}

// ObserveRecommend 记录一次推荐请求的结果（ok / error）。
func (m *Training) ObserveRecommend(outcome string) {
	if m == nil {
		return
	}
	m.Recommend.WithLabelValues(outcome).Inc()
}
