package filter

import (
	"context"

	"github.com/rushteam/playgcn/core"
)

// Filter 判断一个候选曲目是否应被过滤。返回 true 表示移除。
type Filter interface {
	Name() string

	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
