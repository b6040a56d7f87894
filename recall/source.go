package recall

import (
	"context"

	"github.com/rushteam/playgcn/core"
)

// Source 是可复用的召回源（Embedding / 热度 / ...），可被 Fanout 并发执行。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// LabelRecallSource 是记录召回来源的 Label key。
const LabelRecallSource = "recall_source"
