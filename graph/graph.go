package graph

import (
	"github.com/rushteam/playgcn/dataset"
)

// Edge 是一条歌单-曲目正样本边（节点编号）。
type Edge struct {
	Playlist int
	Track    int
}

// Graph 是无向二部图。
//
// Src/Dst 是 COO 形式的有向条目：每条无向边对应 (p→t) 与 (t→p) 两条。
// 重复的 CSV 行会重复插入，不做去重。
type Graph struct {
	NumNodes int

	Src []int
	Dst []int

	// Pairs 每个有效行一条，作为训练正样本
	Pairs []Edge

	// Skipped 是歌单或曲目 key 无法解析而未建边的行数
	Skipped int

	neighbors [][]int
	positives map[Edge]struct{}
}

// Build 根据 rows 与 idx 建图。key 无法解析的行被静默跳过（计入 Skipped）。
func Build(rows []dataset.Row, idx *Index) *Graph {
	n := idx.NumNodes()
	g := &Graph{
		NumNodes:  n,
		Src:       make([]int, 0, 2*len(rows)),
		Dst:       make([]int, 0, 2*len(rows)),
		Pairs:     make([]Edge, 0, len(rows)),
		neighbors: make([][]int, n),
		positives: make(map[Edge]struct{}, len(rows)),
	}
	for i := range rows {
		p, okP := idx.Playlist(rows[i].PlaylistID)
		t, okT := idx.Track(rows[i].TrackID)
		if !okP || !okT {
			g.Skipped++
			continue
		}
		g.AddEdge(p, t)
	}
	return g
}

// AddEdge 追加一条无向边（两条有向条目）。
func (g *Graph) AddEdge(playlist, track int) {
	g.Src = append(g.Src, playlist, track)
	g.Dst = append(g.Dst, track, playlist)
	g.Pairs = append(g.Pairs, Edge{Playlist: playlist, Track: track})
	if g.neighbors == nil {
		g.neighbors = make([][]int, g.NumNodes)
	}
	if g.positives == nil {
		g.positives = make(map[Edge]struct{})
	}
	e := Edge{Playlist: playlist, Track: track}
	if _, ok := g.positives[e]; !ok {
		g.neighbors[playlist] = append(g.neighbors[playlist], track)
		g.neighbors[track] = append(g.neighbors[track], playlist)
		g.positives[e] = struct{}{}
	}
}

// NumEdges 返回无向边数（等于有效行数）。
func (g *Graph) NumEdges() int { return len(g.Pairs) }

// NumEntries 返回有向条目数。
func (g *Graph) NumEntries() int { return len(g.Src) }

// HasEdge 判断 (playlist, track) 是否为正样本。
func (g *Graph) HasEdge(playlist, track int) bool {
	_, ok := g.positives[Edge{Playlist: playlist, Track: track}]
	return ok
}

// Neighbors 返回节点的去重邻居（按首次连边顺序）。
func (g *Graph) Neighbors(node int) []int {
	if node < 0 || node >= len(g.neighbors) {
		return nil
	}
	return g.neighbors[node]
}

// Degree 返回节点的去重度数。
func (g *Graph) Degree(node int) int {
	return len(g.Neighbors(node))
}
