package service

import (
	"github.com/rushteam/playgcn/config"
	"github.com/rushteam/playgcn/feature"
	"github.com/rushteam/playgcn/model"
	"github.com/rushteam/playgcn/pkg/metrics"
)

// Options 控制 Recommender 的构建过程。
type Options struct {
	Train  model.TrainConfig
	Scaler string // none / zscore / minmax

	// K 是默认 pipeline 的召回与截断数量
	K int

	// PipelinePath 非空时从 YAML 构建 pipeline
	PipelinePath string

	// Concurrency 是 RecommendBatch 的并发上限
	Concurrency int

	// Metrics 为 nil 时不记录指标
	Metrics *metrics.Training
}

// DefaultOptions 返回默认构建选项：默认训练参数、zscore 缩放、K=10、并发 4。
func DefaultOptions() Options {
	return Options{
		Train:       model.DefaultTrainConfig(),
		Scaler:      feature.ScalerZScore,
		K:           10,
		Concurrency: 4,
	}
}

// OptionsFromSettings 把应用配置转换为构建选项。
func OptionsFromSettings(s *config.Settings, m *metrics.Training) Options {
	return Options{
		Train:        s.Train,
		Scaler:       s.Feature.Scaler,
		K:            s.Recommend.K,
		PipelinePath: s.Recommend.Pipeline,
		Concurrency:  s.Recommend.Concurrency,
		Metrics:      m,
	}
}
