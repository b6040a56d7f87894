// Package graph 把 CSV 行转换成歌单-曲目二部图：节点编号、边表、归一化邻接矩阵。
//
// 节点编号：歌单占 [0, P)，曲目占 [P, P+T)，均按首次出现顺序分配。
package graph

import "github.com/rushteam/playgcn/dataset"

// Index 是 key 与节点编号之间的双向映射。
type Index struct {
	playlists    map[string]int
	tracks       map[string]int
	playlistKeys []string
	trackKeys    []string
}

// Assign 为所有非空的歌单 key 和曲目 key 分配节点编号。
func Assign(rows []dataset.Row) *Index {
	idx := &Index{
		playlists: make(map[string]int),
		tracks:    make(map[string]int),
	}
	for i := range rows {
		if k := rows[i].PlaylistID; k != "" {
			if _, ok := idx.playlists[k]; !ok {
				idx.playlists[k] = len(idx.playlistKeys)
				idx.playlistKeys = append(idx.playlistKeys, k)
			}
		}
	}
	offset := len(idx.playlistKeys)
	for i := range rows {
		if k := rows[i].TrackID; k != "" {
			if _, ok := idx.tracks[k]; !ok {
				idx.tracks[k] = offset + len(idx.trackKeys)
				idx.trackKeys = append(idx.trackKeys, k)
			}
		}
	}
	return idx
}

// NumPlaylists 返回 P。
func (x *Index) NumPlaylists() int { return len(x.playlistKeys) }

// NumTracks 返回 T。
func (x *Index) NumTracks() int { return len(x.trackKeys) }

// NumNodes 返回 P+T。
func (x *Index) NumNodes() int { return len(x.playlistKeys) + len(x.trackKeys) }

// TrackRange 返回曲目节点区间 [lo, hi)。
func (x *Index) TrackRange() (lo, hi int) {
	return len(x.playlistKeys), x.NumNodes()
}

// IsPlaylist 判断节点是否为歌单。
func (x *Index) IsPlaylist(node int) bool {
	return node >= 0 && node < len(x.playlistKeys)
}

// IsTrack 判断节点是否为曲目。
func (x *Index) IsTrack(node int) bool {
	lo, hi := x.TrackRange()
	return node >= lo && node < hi
}

// Playlist 返回歌单 key 的节点编号。
func (x *Index) Playlist(key string) (int, bool) {
	i, ok := x.playlists[key]
	return i, ok
}

// Track 返回曲目 key 的节点编号。
func (x *Index) Track(key string) (int, bool) {
	i, ok := x.tracks[key]
	return i, ok
}

// PlaylistKey 返回歌单节点对应的 key。
func (x *Index) PlaylistKey(node int) (string, bool) {
	if !x.IsPlaylist(node) {
		return "", false
	}
	return x.playlistKeys[node], true
}

// TrackKey 返回曲目节点对应的 key。
func (x *Index) TrackKey(node int) (string, bool) {
	if !x.IsTrack(node) {
		return "", false
	}
	return x.trackKeys[node-len(x.playlistKeys)], true
}

// PlaylistKeys 按节点编号顺序返回全部歌单 key。
func (x *Index) PlaylistKeys() []string {
	return append([]string(nil), x.playlistKeys...)
}

// TrackKeys 按节点编号顺序返回全部曲目 key。
func (x *Index) TrackKeys() []string {
	return append([]string(nil), x.trackKeys...)
}
