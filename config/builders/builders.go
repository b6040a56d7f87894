// Package builders 注册无状态的内置 Node，import _ 即可生效。
package builders

import (
	"fmt"

	"github.com/rushteam/playgcn/config"
	"github.com/rushteam/playgcn/filter"
	"github.com/rushteam/playgcn/pipeline"
	"github.com/rushteam/playgcn/pkg/conv"
	"github.com/rushteam/playgcn/rerank"
)

func init() {
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("filter.blacklist", BuildBlacklistNode)
	config.Register("filter.expr", BuildExprNode)
	config.Register("filter", BuildFilterNode)
}

// BuildTopNNode: {n: 10}
func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}

// BuildDiversityNode: {key: track_artist, max_per_key: 1, demote: false}
func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.Diversity{
		Key:       conv.ConfigGet(cfg, "key", ""),
		MaxPerKey: int(conv.ConfigGetInt64(cfg, "max_per_key", 1)),
		Demote:    conv.ConfigGet(cfg, "demote", false),
	}, nil
}

// BuildBlacklistNode: {track_ids: [...]}
func BuildBlacklistNode(cfg map[string]any) (pipeline.Node, error) {
	f, err := buildFilter("blacklist", cfg)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

// BuildExprNode: {expr: 'item.score < 0.1'}
func BuildExprNode(cfg map[string]any) (pipeline.Node, error) {
	f, err := buildFilter("expr", cfg)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

// BuildFilterNode 组合多个过滤器：{filters: [{type: blacklist, track_ids: [...]}, {type: expr, expr: ...}]}
func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for i, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("filters[%d]: expected a map", i)
		}
		f, err := buildFilter(conv.ConfigGet(filterMap, "type", ""), filterMap)
		if err != nil {
			return nil, fmt.Errorf("filters[%d]: %w", i, err)
		}
		filters = append(filters, f)
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func buildFilter(filterType string, cfg map[string]any) (filter.Filter, error) {
	switch filterType {
	case "blacklist":
		return filter.NewBlacklistFilter(conv.SliceAnyToString(cfg["track_ids"]), nil, ""), nil
	case "expr":
		expr := conv.ConfigGet(cfg, "expr", "")
		if expr == "" {
			return nil, fmt.Errorf("expr not found")
		}
		return filter.NewExprFilter(expr)
	default:
		return nil, fmt.Errorf("unknown filter type: %q", filterType)
	}
}
