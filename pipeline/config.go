package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Config 是 Pipeline 的配置结构（YAML/JSON）。
//
//	pipeline:
//	  name: playlist
//	  nodes:
//	    - type: recall.embedding
//	      config: {top_k: 50}
//	    - type: rerank.topn
//	      config: {n: 10}
type Config struct {
	Pipeline struct {
		Name  string       `yaml:"name" json:"name"`
		Nodes []NodeConfig `yaml:"nodes" json:"nodes"`
	} `yaml:"pipeline" json:"pipeline"`
}

// NodeConfig 是单个 Node 的配置。
type NodeConfig struct {
	Type   string         `yaml:"type" json:"type"`     // recall.embedding / filter.expr / rerank.topn 等
	Config map[string]any `yaml:"config" json:"config"` // Node 特定配置
}

// ParseYAML 解析 YAML 格式的 Pipeline 配置。
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// LoadFromYAML 从 YAML 文件加载 Pipeline 配置。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseYAML(data)
}

// LoadFromJSON 从 JSON 文件加载 Pipeline 配置。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &cfg, nil
}

// BuildPipeline 根据配置构建 Pipeline。
func (c *Config) BuildPipeline(factory *NodeFactory) (*Pipeline, error) {
	if len(c.Pipeline.Nodes) == 0 {
		return nil, fmt.Errorf("pipeline %q has no nodes", c.Pipeline.Name)
	}
	nodes := make([]Node, 0, len(c.Pipeline.Nodes))
	for i, nc := range c.Pipeline.Nodes {
		node, err := factory.Build(nc.Type, nc.Config)
		if err != nil {
			return nil, fmt.Errorf("build node #%d %s: %w", i, nc.Type, err)
		}
		nodes = append(nodes, node)
	}
	return &Pipeline{Name: c.Pipeline.Name, Nodes: nodes}, nil
}

// NodeBuilder 根据配置构建一个 Node。
type NodeBuilder func(map[string]any) (Node, error)

// NodeFactory 按类型名查找 NodeBuilder。
type NodeFactory struct {
	builders map[string]NodeBuilder
}

func NewNodeFactory() *NodeFactory {
	return &NodeFactory{
		builders: make(map[string]NodeBuilder),
	}
}

// Register 注册构建器，同名覆盖。
func (f *NodeFactory) Register(nodeType string, builder NodeBuilder) {
	f.builders[nodeType] = builder
}

// Build 根据类型和配置构建 Node。
func (f *NodeFactory) Build(nodeType string, config map[string]any) (Node, error) {
	builder, ok := f.builders[nodeType]
	if !ok {
		return nil, fmt.Errorf("unknown node type: %s", nodeType)
	}
	if config == nil {
		config = map[string]any{}
	}
	return builder(config)
}

// Has 判断类型是否已注册。
func (f *NodeFactory) Has(nodeType string) bool {
	_, ok := f.builders[nodeType]
	return ok
}

// Types 返回已注册的类型（排序后）。
func (f *NodeFactory) Types() []string {
	out := make([]string, 0, len(f.builders))
	for t := range f.builders {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
