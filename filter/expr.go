package filter

import (
	"context"

	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/pkg/dsl"
)

// ExprFilter 用 CEL 表达式过滤，表达式为 true 的曲目被移除。
//
//	item.meta.track_artist == "Artist D"
//	item.score < rctx.params.min_score
type ExprFilter struct {
	Program *dsl.Program
}

// NewExprFilter 编译表达式，编译失败返回错误。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{Program: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	return f.Program.Eval(item, rctx)
}
