package pipeline

import (
	"context"

	"github.com/rushteam/playgcn/core"
)

// Kind 标记 Node 所处阶段，便于日志与编排。
type Kind string

const (
	KindRecall Kind = "recall" // 召回：生成候选曲目
	KindFilter Kind = "filter" // 过滤：剔除已知/黑名单/表达式命中的曲目
	KindReRank Kind = "rerank" // 重排：截断、多样性
)

// Node 是 Pipeline 的最小单元：输入 items，输出 items。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
