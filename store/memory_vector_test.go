package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/playgcn/core"
)

func newTracks(t *testing.T) *MemoryVectorService {
	t.Helper()
	ctx := context.Background()
	vs := NewMemoryVectorService()
	require.NoError(t, vs.CreateCollection(ctx, &core.VectorCreateCollectionRequest{Name: "tracks", Dimension: 2}))
	require.NoError(t, vs.Insert(ctx, &core.VectorInsertRequest{
		Collection: "tracks",
		IDs:        []string{"t1", "t2", "t3", "t4"},
		Vectors:    [][]float64{{1, 0}, {0, 1}, {1, 0}, {2, 2}},
		Metadata: []map[string]any{
			{"artist": "A"}, {"artist": "B"}, {"artist": "A"}, {"artist": "C"},
		},
	}))
	return vs
}

func ids(res *core.VectorSearchResult) []string {
	out := make([]string, len(res.Items))
	for i, it := range res.Items {
		out[i] = it.ID
	}
	return out
}

func TestSearchInnerProductStableTies(t *testing.T) {
	vs := newTracks(t)
	res, err := vs.Search(context.Background(), &core.VectorSearchRequest{
		Collection: "tracks", Vector: []float64{1, 0}, TopK: 10,
	})
	require.NoError(t, err)

	// t4=2, t1=1, t3=1, t2=0：同分时先写入的 t1 在前
	assert.Equal(t, []string{"t4", "t1", "t3", "t2"}, ids(res))
	assert.Equal(t, 2.0, res.Items[0].Score)
	assert.Equal(t, "C", res.Items[0].Metadata["artist"])
}

func TestSearchTopKTruncates(t *testing.T) {
	vs := newTracks(t)
	res, err := vs.Search(context.Background(), &core.VectorSearchRequest{
		Collection: "tracks", Vector: []float64{1, 0}, TopK: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"t4", "t1"}, ids(res))
}

func TestSearchInvalid(t *testing.T) {
	vs := newTracks(t)
	ctx := context.Background()

	_, err := vs.Search(ctx, &core.VectorSearchRequest{Collection: "tracks", Vector: []float64{1, 0}, TopK: 0})
	assert.True(t, core.IsInvalidInput(err))

	_, err = vs.Search(ctx, &core.VectorSearchRequest{Collection: "tracks", Vector: []float64{1}, TopK: 1})
	assert.True(t, core.IsInvalidInput(err))

	_, err = vs.Search(ctx, &core.VectorSearchRequest{Collection: "missing", Vector: []float64{1, 0}, TopK: 1})
	assert.True(t, core.IsNotFound(err))

	_, err = vs.Search(ctx, &core.VectorSearchRequest{Collection: "tracks", Vector: []float64{1, 0}, TopK: 1, Metric: "hamming"})
	assert.True(t, core.IsInvalidInput(err))

	_, err = vs.Search(ctx, nil)
	assert.True(t, core.IsInvalidInput(err))
}

func TestSearchExcludeAndFilter(t *testing.T) {
	vs := newTracks(t)
	res, err := vs.Search(context.Background(), &core.VectorSearchRequest{
		Collection: "tracks",
		Vector:     []float64{1, 0},
		TopK:       10,
		Filter:     map[string]any{"artist": "A"},
		ExcludeIDs: map[string]struct{}{"t1": {}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"t3"}, ids(res))
}

func TestSearchMetrics(t *testing.T) {
	vs := newTracks(t)
	ctx := context.Background()

	res, err := vs.Search(ctx, &core.VectorSearchRequest{
		Collection: "tracks", Vector: []float64{1, 1}, TopK: 1, Metric: string(core.MetricCosine),
	})
	require.NoError(t, err)
	assert.Equal(t, "t4", res.Items[0].ID)
	assert.InDelta(t, 1.0, res.Items[0].Score, 1e-12)

	res, err = vs.Search(ctx, &core.VectorSearchRequest{
		Collection: "tracks", Vector: []float64{0, 1}, TopK: 1, Metric: string(core.MetricEuclidean),
	})
	require.NoError(t, err)
	assert.Equal(t, "t2", res.Items[0].ID)
	assert.Equal(t, 1.0, res.Items[0].Score)
}

func TestInsertOverwriteKeepsOrder(t *testing.T) {
	vs := newTracks(t)
	ctx := context.Background()
	require.NoError(t, vs.Insert(ctx, &core.VectorInsertRequest{
		Collection: "tracks", IDs: []string{"t1"}, Vectors: [][]float64{{0, 0}},
	}))
	assert.Equal(t, 4, vs.Len("tracks"))

	res, err := vs.Search(ctx, &core.VectorSearchRequest{Collection: "tracks", Vector: []float64{0, 1}, TopK: 4})
	require.NoError(t, err)
	// t4=2, t2=1, t1=0, t3=0
	assert.Equal(t, []string{"t4", "t2", "t1", "t3"}, ids(res))
}

func TestInsertErrors(t *testing.T) {
	vs := newTracks(t)
	ctx := context.Background()

	err := vs.Insert(ctx, &core.VectorInsertRequest{Collection: "tracks", IDs: []string{"x"}, Vectors: [][]float64{{1, 2, 3}}})
	assert.True(t, core.IsInvalidInput(err))

	err = vs.Insert(ctx, &core.VectorInsertRequest{Collection: "tracks", IDs: []string{"x", "y"}, Vectors: [][]float64{{1, 2}}})
	assert.True(t, core.IsInvalidInput(err))

	err = vs.Insert(ctx, &core.VectorInsertRequest{Collection: "nope", IDs: []string{"x"}, Vectors: [][]float64{{1, 2}}})
	assert.True(t, core.IsNotFound(err))
	assert.Equal(t, 4, vs.Len("tracks"))
}

func TestCollections(t *testing.T) {
	vs := NewMemoryVectorService()
	ctx := context.Background()

	assert.True(t, core.IsInvalidInput(vs.CreateCollection(ctx, &core.VectorCreateCollectionRequest{Name: "", Dimension: 2})))
	assert.True(t, core.IsInvalidInput(vs.CreateCollection(ctx, &core.VectorCreateCollectionRequest{Name: "a", Dimension: 0})))
	assert.True(t, core.IsInvalidInput(vs.CreateCollection(ctx, &core.VectorCreateCollectionRequest{Name: "a", Dimension: 2, Metric: "l1"})))

	require.NoError(t, vs.CreateCollection(ctx, &core.VectorCreateCollectionRequest{Name: "a", Dimension: 2}))
	assert.True(t, core.IsInvalidInput(vs.CreateCollection(ctx, &core.VectorCreateCollectionRequest{Name: "a", Dimension: 2})))

	ok, err := vs.HasCollection(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, vs.DropCollection(ctx, "a"))
	ok, _ = vs.HasCollection(ctx, "a")
	assert.False(t, ok)
	assert.Zero(t, vs.Len("a"))
}
