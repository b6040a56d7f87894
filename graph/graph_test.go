package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/playgcn/dataset"
)

func row(playlist, track string) dataset.Row {
	return dataset.Row{PlaylistID: playlist, TrackID: track}
}

// P1-T1, P1-T2, P2-T1
func exampleRows() []dataset.Row {
	return []dataset.Row{row("P1", "T1"), row("P1", "T2"), row("P2", "T1")}
}

func TestAssignRanges(t *testing.T) {
	rows := []dataset.Row{
		row("P2", "T3"), row("P1", "T1"), row("P2", "T1"), row("P3", "T2"), row("", "T4"), row("P4", ""),
	}
	idx := Assign(rows)

	require.Equal(t, 4, idx.NumPlaylists())
	require.Equal(t, 4, idx.NumTracks())
	assert.Equal(t, 8, idx.NumNodes())

	seen := make(map[int]bool)
	for i, k := range idx.PlaylistKeys() {
		n, ok := idx.Playlist(k)
		require.True(t, ok)
		assert.Equal(t, i, n, "playlists are numbered in first-seen order")
		assert.False(t, seen[n])
		seen[n] = true
	}
	lo, hi := idx.TrackRange()
	assert.Equal(t, 4, lo)
	assert.Equal(t, 8, hi)
	for i, k := range idx.TrackKeys() {
		n, ok := idx.Track(k)
		require.True(t, ok)
		assert.Equal(t, lo+i, n)
		assert.False(t, seen[n], "ranges are disjoint")
		seen[n] = true
	}
	assert.Len(t, seen, idx.NumNodes(), "ranges cover [0, P+T)")

	assert.Equal(t, []string{"P2", "P1", "P3", "P4"}, idx.PlaylistKeys())
	assert.Equal(t, []string{"T3", "T1", "T2", "T4"}, idx.TrackKeys())

	_, ok := idx.Playlist("")
	assert.False(t, ok, "empty keys are never assigned")
	_, ok = idx.Track("")
	assert.False(t, ok)
}

func TestIndexInverse(t *testing.T) {
	idx := Assign(exampleRows())

	k, ok := idx.TrackKey(2)
	require.True(t, ok)
	assert.Equal(t, "T1", k)
	k, ok = idx.PlaylistKey(1)
	require.True(t, ok)
	assert.Equal(t, "P2", k)

	_, ok = idx.TrackKey(1)
	assert.False(t, ok, "playlist node is not a track")
	_, ok = idx.PlaylistKey(2)
	assert.False(t, ok)
	_, ok = idx.TrackKey(4)
	assert.False(t, ok)
	assert.True(t, idx.IsTrack(3))
	assert.True(t, idx.IsPlaylist(0))
	assert.False(t, idx.IsPlaylist(-1))
}

func TestBuildExample(t *testing.T) {
	rows := exampleRows()
	idx := Assign(rows)
	g := Build(rows, idx)

	assert.Equal(t, 4, g.NumNodes)
	assert.Equal(t, 3, g.NumEdges())
	assert.Equal(t, 6, g.NumEntries())
	assert.Zero(t, g.Skipped)

	// P1=0 P2=1 T1=2 T2=3
	assert.Equal(t, []int{0, 2, 0, 3, 1, 2}, g.Src)
	assert.Equal(t, []int{2, 0, 3, 0, 2, 1}, g.Dst)
	assert.Equal(t, []Edge{{0, 2}, {0, 3}, {1, 2}}, g.Pairs)

	assert.True(t, g.HasEdge(0, 3))
	assert.False(t, g.HasEdge(1, 3))
	assert.Equal(t, []int{2, 3}, g.Neighbors(0))
	assert.Equal(t, []int{0, 1}, g.Neighbors(2))
	assert.Nil(t, g.Neighbors(9))
}

func TestBuildSkipsUnresolvedAndKeepsDuplicates(t *testing.T) {
	rows := []dataset.Row{row("P1", "T1"), row("", "T1"), row("P1", ""), row("P1", "T1")}
	idx := Assign(rows)
	g := Build(rows, idx)

	assert.Equal(t, 2, g.Skipped)
	assert.Equal(t, 2, g.NumEdges(), "duplicate rows are inserted again")
	assert.Equal(t, 4, g.NumEntries())
	assert.Equal(t, 1, g.Degree(0), "neighbor lists are deduplicated")
}

func TestBuildEntriesMatchRows(t *testing.T) {
	rows := []dataset.Row{
		row("a", "x"), row("b", "y"), row("a", "y"), row("c", "z"), row("b", "x"),
	}
	idx := Assign(rows)
	g := Build(rows, idx)
	require.Equal(t, 2*len(rows), g.NumEntries())

	for i, r := range rows {
		p, _ := idx.Playlist(r.PlaylistID)
		tr, _ := idx.Track(r.TrackID)
		assert.Equal(t, p, g.Src[2*i])
		assert.Equal(t, tr, g.Dst[2*i])
		assert.Equal(t, tr, g.Src[2*i+1])
		assert.Equal(t, p, g.Dst[2*i+1])
	}
}

func TestNormalizedAdjacency(t *testing.T) {
	rows := exampleRows()
	g := Build(rows, Assign(rows))
	adj := g.Normalized()

	// 度数（含自环）：P1=3 P2=2 T1=3 T2=2
	deg := []float64{3, 2, 3, 2}
	want := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		want.Set(i, i, 1/deg[i])
	}
	for k := range g.Src {
		i, j := g.Src[k], g.Dst[k]
		want.Set(i, j, 1/math.Sqrt(deg[i]*deg[j]))
	}

	assert.Equal(t, 4, adj.N())
	assert.Equal(t, 4+6, adj.NNZ())
	assert.True(t, mat.EqualApprox(want, adj.Dense(), 1e-12))
	assert.True(t, mat.EqualApprox(adj.Dense(), adj.Dense().T(), 1e-12), "Â is symmetric")
	assert.InDelta(t, 1/math.Sqrt(6), adj.At(0, 3), 1e-12)
	assert.Zero(t, adj.At(1, 3))
}

func TestNormalizedDuplicatesAddWeight(t *testing.T) {
	rows := []dataset.Row{row("P1", "T1"), row("P1", "T1")}
	g := Build(rows, Assign(rows))
	adj := g.Normalized()
	// A[0][1] = 2，度数均为 3
	assert.InDelta(t, 2.0/3.0, adj.At(0, 1), 1e-12)
	assert.InDelta(t, 1.0/3.0, adj.At(0, 0), 1e-12)
}

func TestPropagateMatchesDense(t *testing.T) {
	rows := []dataset.Row{row("a", "x"), row("b", "y"), row("a", "y"), row("c", "z")}
	g := Build(rows, Assign(rows))
	adj := g.Normalized()

	src := mat.NewDense(g.NumNodes, 2, nil)
	for i := 0; i < g.NumNodes; i++ {
		src.Set(i, 0, float64(i+1))
		src.Set(i, 1, -0.5*float64(i))
	}
	var want mat.Dense
	want.Mul(adj.Dense(), src)

	got := adj.Propagate(nil, src)
	assert.True(t, mat.EqualApprox(&want, got, 1e-12))

	// 复用 dst 时结果被覆盖而不是累加
	got = adj.Propagate(got, src)
	assert.True(t, mat.EqualApprox(&want, got, 1e-12))
}

func TestPropagateShapeMismatchPanics(t *testing.T) {
	rows := exampleRows()
	adj := Build(rows, Assign(rows)).Normalized()
	assert.Panics(t, func() { adj.Propagate(nil, mat.NewDense(3, 1, nil)) })
}
