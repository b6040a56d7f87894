// Package dsl 是基于 CEL 的过滤表达式，作用于候选曲目与歌单请求上下文。
//
// 可用变量：
//   - item：id / score / meta / labels
//   - label：标签值的快捷访问，label.recall_source == "recall.popular"
//   - rctx：playlist_id / playlist_index / params
//
// 示例：
//   - item.score < 0.5
//   - item.meta.track_artist == "Artist D"
//   - label.recall_source != null && label.recall_source.contains("popular")
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/playgcn/core"
)

var (
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的布尔表达式，可并发复用。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式，结果类型必须为 bool。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return nil, fmt.Errorf("dsl: empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("dsl: expression %q must return bool, got %s", expr, t)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// MustCompile 同 Compile，出错时 panic。
func MustCompile(expr string) *Program {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Program) String() string { return p.expr }

// Eval 对单个曲目求值。
// 访问不存在的 key 会返回错误，判断存在性请使用 label.key != null。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression %q must return bool, got %T", p.expr, out.Value())
	}
	return result, nil
}

// Evaluate 编译并执行一次表达式。空表达式视为 true。
func Evaluate(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(item, rctx)
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	values := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = map[string]any{"value": v.Value, "source": v.Source}
		values[k] = v.Value
	}

	in := map[string]any{
		"item": map[string]any{
			"id":     item.ID,
			"score":  item.Score,
			"meta":   item.Meta,
			"labels": labels,
		},
		"label": values,
		"rctx":  map[string]any{},
	}
	if rctx != nil {
		in["rctx"] = map[string]any{
			"playlist_id":    rctx.PlaylistID,
			"playlist_index": rctx.PlaylistIndex,
			"params":         rctx.Params,
		}
	}
	return in
}
