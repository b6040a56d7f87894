package core

import "context"

// VectorService 是向量检索服务的领域接口。
//
// 使用场景：
//   - GCN 召回：用歌单 Embedding 检索曲目 Embedding（内积打分 + TopK）
//
// 实现：
//   - store.MemoryVectorService
type VectorService interface {
	// Search 向量搜索
	Search(ctx context.Context, req *VectorSearchRequest) (*VectorSearchResult, error)

	// Close 关闭连接
	Close() error
}

// VectorIndex 在 VectorService 之上提供集合管理与写入，供训练完成后灌入曲目向量。
type VectorIndex interface {
	VectorService

	// CreateCollection 创建集合
	CreateCollection(ctx context.Context, req *VectorCreateCollectionRequest) error

	// DropCollection 删除集合
	DropCollection(ctx context.Context, collection string) error

	// HasCollection 检查集合是否存在
	HasCollection(ctx context.Context, collection string) (bool, error)

	// Insert 按顺序写入向量；顺序决定同分时的排名
	Insert(ctx context.Context, req *VectorInsertRequest) error
}

// VectorSearchRequest 向量搜索请求
type VectorSearchRequest struct {
	// Collection 集合名称
	Collection string

	// Vector 查询向量
	Vector []float64

	// TopK 返回 TopK 个最相似的结果，必须大于 0
	TopK int

	// Metric 距离度量方式：cosine / euclidean / inner_product，为空时使用集合默认值
	Metric string

	// Filter 元数据等值过滤（可选）
	Filter map[string]any

	// ExcludeIDs 需要排除的 ID（可选）
	ExcludeIDs map[string]struct{}
}

// VectorSearchItem 单个向量搜索结果项
type VectorSearchItem struct {
	// ID 物品 ID
	ID string

	// Score 相似度分数
	Score float64

	// Metadata 写入时附带的元数据
	Metadata map[string]any
}

// VectorSearchResult 向量搜索结果
type VectorSearchResult struct {
	// Items 搜索结果项列表（按相似度降序）
	Items []VectorSearchItem
}

// VectorInsertRequest 向量插入请求
type VectorInsertRequest struct {
	Collection string
	Vectors    [][]float64
	IDs        []string
	Metadata   []map[string]any
}

// VectorCreateCollectionRequest 创建集合请求
type VectorCreateCollectionRequest struct {
	Name      string
	Dimension int
	Metric    string
}

// ValidateVectorMetric 验证距离度量类型
func ValidateVectorMetric(metric string) bool {
	switch MetricType(metric) {
	case MetricCosine, MetricEuclidean, MetricInnerProduct:
		return true
	default:
		return false
	}
}

// MetricType 距离度量类型
type MetricType string

const (
	MetricCosine       MetricType = "cosine"
	MetricEuclidean    MetricType = "euclidean"
	MetricInnerProduct MetricType = "inner_product"
)
