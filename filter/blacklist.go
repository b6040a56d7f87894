package filter

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rushteam/playgcn/core"
)

// PlaylistPlaceholder 出现在 BlacklistFilter.Key 中时会被替换为当前歌单 ID，
// 例如 "block:{playlist_id}" 表示按歌单维护的屏蔽列表。
const PlaylistPlaceholder = "{playlist_id}"

// BlacklistFilter 过滤黑名单中的曲目。
// 黑名单来自内存 TrackIDs，以及可选的 Store（Key 对应的值为 JSON 字符串数组）。
type BlacklistFilter struct {
	TrackIDs map[string]struct{}

	Store core.Store
	Key   string
}

// NewBlacklistFilter 创建黑名单过滤器，store 可以为 nil。
func NewBlacklistFilter(trackIDs []string, store core.Store, key string) *BlacklistFilter {
	ids := make(map[string]struct{}, len(trackIDs))
	for _, id := range trackIDs {
		ids[id] = struct{}{}
	}
	return &BlacklistFilter{TrackIDs: ids, Store: store, Key: key}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if _, ok := f.TrackIDs[item.ID]; ok {
		return true, nil
	}

	if f.Store == nil || f.Key == "" {
		return false, nil
	}
	ids, err := f.load(ctx, rctx)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == item.ID {
			return true, nil
		}
	}
	return false, nil
}

func (f *BlacklistFilter) load(ctx context.Context, rctx *core.RecommendContext) ([]string, error) {
	key := f.Key
	if rctx != nil {
		key = strings.ReplaceAll(key, PlaylistPlaceholder, rctx.PlaylistID)
	}
	data, err := f.Store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
