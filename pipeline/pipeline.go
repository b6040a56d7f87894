package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/pkg/logging"
)

// Pipeline 把一次歌单推荐拆成可组合的 Node 链：召回 → 过滤 → 重排。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// Run 依次执行各 Node，前一个的输出是后一个的输入。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	log := logging.Ctx(ctx)
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: node %s: %w", p.Name, node.Name(), err)
		}
		log.Debug().
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("in", len(cur)).
			Int("out", len(next)).
			Msg("pipeline node done")
		cur = next
	}
	return cur, nil
}
