package core

import "github.com/rushteam/playgcn/pkg/utils"

// Item 是推荐链路中的统一承载结构：曲目 ID、分数、元信息与标签。
// ID 是曲目的原始 key（track_id），Meta 中的 node_index 是它在图中的节点编号。
type Item struct {
	ID     string
	Score  float64
	Meta   map[string]any
	Labels map[string]utils.Label
}

// Meta 中的常用 key。
const (
	MetaNodeIndex  = "node_index"
	MetaName       = "track_name"
	MetaArtist     = "track_artist"
	MetaAlbum      = "track_album_name"
	MetaGenre      = "playlist_genre"
	MetaPopularity = "track_popularity" // recall.popular 写入的热度（float64）
)

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Score:  0,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// NodeIndex 返回 Meta 中记录的图节点编号，不存在时返回 -1。
func (it *Item) NodeIndex() int {
	if it == nil || it.Meta == nil {
		return -1
	}
	if idx, ok := it.Meta[MetaNodeIndex].(int); ok {
		return idx
	}
	return -1
}
