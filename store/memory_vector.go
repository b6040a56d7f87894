package store

import (
	"context"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/playgcn/core"
)

// MemoryVectorService 是内存实现的向量索引，保存训练后的曲目 Embedding。
//
// 特点：
//   - 纯内存实现，不落盘
//   - 支持余弦相似度、欧氏距离、内积
//   - 集合内按写入顺序保存向量，同分结果保持写入顺序（稳定排序）
//   - 线程安全
type MemoryVectorService struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	name      string
	dimension int
	metric    string
	ids       []string       // 写入顺序
	pos       map[string]int // id -> ids 下标
	vectors   [][]float64
	metadata  []map[string]any
}

func NewMemoryVectorService() *MemoryVectorService {
	return &MemoryVectorService{
		collections: make(map[string]*collection),
	}
}

func (m *MemoryVectorService) Name() string { return "memory_vector" }

// Search 对集合做精确的全量打分，返回 min(TopK, n) 个结果，按分数降序。
func (m *MemoryVectorService) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	if req == nil {
		return nil, core.InvalidInput(core.ModuleVector, "vector search request is nil")
	}
	if req.TopK <= 0 {
		return nil, core.InvalidInput(core.ModuleVector, "vector search: topK must be positive, got %d", req.TopK)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[req.Collection]
	if !ok {
		return nil, core.NotFound(core.ModuleVector, "collection not found: %s", req.Collection)
	}
	if len(req.Vector) != col.dimension {
		return nil, core.InvalidInput(core.ModuleVector, "vector dimension mismatch: got %d, want %d", len(req.Vector), col.dimension)
	}

	metric := req.Metric
	if metric == "" {
		metric = col.metric
	}
	if !core.ValidateVectorMetric(metric) {
		return nil, core.InvalidInput(core.ModuleVector, "unsupported metric %q", metric)
	}

	type scoredItem struct {
		pos   int
		score float64
	}
	scored := make([]scoredItem, 0, len(col.ids))
	for i, id := range col.ids {
		if _, skip := req.ExcludeIDs[id]; skip {
			continue
		}
		if req.Filter != nil && !matchFilter(req.Filter, col.metadata[i]) {
			continue
		}
		scored = append(scored, scoredItem{pos: i, score: similarity(core.MetricType(metric), req.Vector, col.vectors[i])})
	}

	// 稳定排序：同分时先写入者在前
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > req.TopK {
		scored = scored[:req.TopK]
	}

	items := make([]core.VectorSearchItem, len(scored))
	for i, s := range scored {
		items[i] = core.VectorSearchItem{
			ID:       col.ids[s.pos],
			Score:    s.score,
			Metadata: col.metadata[s.pos],
		}
	}
	return &core.VectorSearchResult{Items: items}, nil
}

func (m *MemoryVectorService) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = make(map[string]*collection)
	return nil
}

// Insert 追加向量。已存在的 ID 原位覆盖，保留其原有顺序。
func (m *MemoryVectorService) Insert(ctx context.Context, req *core.VectorInsertRequest) error {
	if req == nil {
		return core.InvalidInput(core.ModuleVector, "insert request is nil")
	}
	if len(req.Vectors) != len(req.IDs) {
		return core.InvalidInput(core.ModuleVector, "vectors and ids length mismatch: %d != %d", len(req.Vectors), len(req.IDs))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[req.Collection]
	if !ok {
		return core.NotFound(core.ModuleVector, "collection not found: %s", req.Collection)
	}

	for _, vector := range req.Vectors {
		if len(vector) != col.dimension {
			return core.InvalidInput(core.ModuleVector, "vector dimension mismatch: got %d, want %d", len(vector), col.dimension)
		}
	}
	for i, vector := range req.Vectors {
		id := req.IDs[i]
		var meta map[string]any
		if len(req.Metadata) > i {
			meta = req.Metadata[i]
		}
		v := append([]float64(nil), vector...)
		if p, exists := col.pos[id]; exists {
			col.vectors[p] = v
			col.metadata[p] = meta
			continue
		}
		col.pos[id] = len(col.ids)
		col.ids = append(col.ids, id)
		col.vectors = append(col.vectors, v)
		col.metadata = append(col.metadata, meta)
	}
	return nil
}

// CreateCollection 创建集合。Metric 为空时默认 inner_product。
func (m *MemoryVectorService) CreateCollection(ctx context.Context, req *core.VectorCreateCollectionRequest) error {
	if req == nil {
		return core.InvalidInput(core.ModuleVector, "create collection request is nil")
	}
	if req.Name == "" {
		return core.InvalidInput(core.ModuleVector, "collection name is required")
	}
	if req.Dimension <= 0 {
		return core.InvalidInput(core.ModuleVector, "dimension must be greater than 0")
	}
	metric := req.Metric
	if metric == "" {
		metric = string(core.MetricInnerProduct)
	}
	if !core.ValidateVectorMetric(metric) {
		return core.InvalidInput(core.ModuleVector, "unsupported metric %q", metric)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.collections[req.Name]; exists {
		return core.InvalidInput(core.ModuleVector, "collection already exists: %s", req.Name)
	}
	m.collections[req.Name] = &collection{
		name:      req.Name,
		dimension: req.Dimension,
		metric:    metric,
		pos:       make(map[string]int),
	}
	return nil
}

func (m *MemoryVectorService) DropCollection(ctx context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.collections, collection)
	return nil
}

func (m *MemoryVectorService) HasCollection(ctx context.Context, collection string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.collections[collection]
	return exists, nil
}

// Len 返回集合中的向量数，集合不存在时为 0。
func (m *MemoryVectorService) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if col, ok := m.collections[collection]; ok {
		return len(col.ids)
	}
	return 0
}

// matchFilter 元数据等值匹配
func matchFilter(filter map[string]any, metadata map[string]any) bool {
	if metadata == nil {
		return false
	}
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

func similarity(metric core.MetricType, a, b []float64) float64 {
	switch metric {
	case core.MetricInnerProduct:
		return floats.Dot(a, b)
	case core.MetricEuclidean:
		// 距离越小分数越高
		return 1.0 / (1.0 + floats.Distance(a, b, 2))
	default:
		na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
		if na == 0 || nb == 0 {
			return 0
		}
		return floats.Dot(a, b) / (na * nb)
	}
}

var (
	_ core.VectorService = (*MemoryVectorService)(nil)
	_ core.VectorIndex   = (*MemoryVectorService)(nil)
)
