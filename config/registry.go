package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/playgcn/pipeline"
)

// 配置驱动时需 import _ "github.com/rushteam/playgcn/config/builders"，
// 以注册无状态的内置 Node（rerank.topn、rerank.diversity、filter.blacklist、filter.expr、filter）。
// 依赖训练结果的 Node（recall.embedding 等）由 service 注册到自己的工厂上。

type NodeBuilder = pipeline.NodeBuilder

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑。一般在 init 中调用。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回全局注册表中的 Node 类型（排序）。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回包含全局注册表内全部 Node 的新工厂，调用方可以继续 Register。
func DefaultFactory() *pipeline.NodeFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 校验配置中的 Node 类型都已在 factory 中注册。
// factory 为 nil 时使用全局注册表。
func ValidatePipelineConfig(cfg *pipeline.Config, factory *pipeline.NodeFactory) error {
	if cfg == nil {
		return nil
	}
	if factory == nil {
		factory = DefaultFactory()
	}
	for i, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			return fmt.Errorf("node #%d: missing type", i)
		}
		if !factory.Has(nc.Type) {
			return fmt.Errorf("unsupported node type %q (supported: %v)", nc.Type, factory.Types())
		}
	}
	return nil
}
