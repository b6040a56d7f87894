// Package playgcn 在歌单-曲目二部图上训练两层 GCN，并按 Embedding 内积为歌单推荐曲目。
//
// 处理流程：
// - dataset 读取 CSV，graph 分配节点编号并建图（歌单在前，曲目在后）
// - feature 组装 12 维音频特征并缩放，model 全批量训练 GCN（BCE + Adam + 负采样）
// - service 把曲目 Embedding 写入向量存储，通过 pipeline（Recall → Filter → ReRank）输出 Top-K
package playgcn

import (
	"github.com/rushteam/playgcn/pipeline"
	"github.com/rushteam/playgcn/service"
)

// 轻量 facade：便于直接 import "playgcn" 使用核心抽象。
type (
	Pipeline       = pipeline.Pipeline
	Node           = pipeline.Node
	Kind           = pipeline.Kind
	Recommender    = service.Recommender
	Recommendation = service.Recommendation
	Options        = service.Options
)

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)

var (
	Build          = service.Build
	BuildFromFile  = service.BuildFromFile
	DefaultOptions = service.DefaultOptions
)
