// Package feature 组装节点特征矩阵，并提供只作用于曲目行的缩放器。
package feature

import (
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/dataset"
	"github.com/rushteam/playgcn/graph"
)

// AssembleStats 记录特征组装时的统计。
type AssembleStats struct {
	// Conflicts 是同一曲目在后续行中特征值与首行不一致的次数（以首行为准）
	Conflicts int
}

// Assemble 生成 (P+T) × 12 的特征矩阵：歌单行全零，曲目行为该曲目首次出现时的音频特征。
func Assemble(rows []dataset.Row, idx *graph.Index) (*mat.Dense, AssembleStats, error) {
	var stats AssembleStats
	n := idx.NumNodes()
	if n == 0 {
		return nil, stats, core.InvalidInput(core.ModuleFeature, "feature: no nodes to assemble")
	}

	x := mat.NewDense(n, dataset.NumAudioFeatures, nil)
	filled := make([]bool, n)
	for i := range rows {
		node, ok := idx.Track(rows[i].TrackID)
		if !ok {
			continue
		}
		if filled[node] {
			if !sameRow(x.RawRowView(node), rows[i].Audio[:]) {
				stats.Conflicts++
			}
			continue
		}
		x.SetRow(node, rows[i].Audio[:])
		filled[node] = true
	}
	return x, stats, nil
}

func sameRow(a, b []float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
