package core

import "github.com/rushteam/playgcn/pkg/utils"

// RecommendContext 承载一次推荐请求的歌单信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	// PlaylistID 是歌单的原始 key（playlist_id）
	PlaylistID string

	// PlaylistIndex 是歌单在图中的节点编号，取值范围 [0, P)
	PlaylistIndex int

	// Labels 是歌单级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级参数，例如 k、debug 等
	Params map[string]any
}

// NewRecommendContext 创建歌单级请求上下文。
func NewRecommendContext(playlistID string, playlistIndex int) *RecommendContext {
	return &RecommendContext{
		PlaylistID:    playlistID,
		PlaylistIndex: playlistIndex,
		Labels:        make(map[string]utils.Label),
		Params:        make(map[string]any),
	}
}

// PutLabel 写入歌单级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取歌单级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// ParamK 是请求级的返回数量参数，召回与截断 Node 优先使用它。
const ParamK = "k"

// ParamInt 读取 int 类型的请求参数，不存在或非正数时返回 false。
func (rctx *RecommendContext) ParamInt(key string) (int, bool) {
	if rctx == nil || rctx.Params == nil {
		return 0, false
	}
	v, ok := rctx.Params[key].(int)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}
