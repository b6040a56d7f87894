package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/pkg/utils"
)

func scored(id string, score float64, artist string) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	if artist != "" {
		it.Meta[core.MetaArtist] = artist
	}
	return it
}

func itemIDs(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestTopNNode(t *testing.T) {
	input := func() []*core.Item {
		return []*core.Item{
			scored("a", 0.1, ""),
			scored("b", 0.9, ""),
			scored("c", 0.5, ""),
			nil,
			scored("d", 0.5, ""),
		}
	}
	tests := []struct {
		name string
		n    int
		want []string
	}{
		{"truncate", 2, []string{"b", "c"}},
		{"ties keep input order", 3, []string{"b", "c", "d"}},
		{"n larger than input", 10, []string{"b", "c", "d", "a"}},
		{"n zero keeps all", 0, []string{"b", "c", "d", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&TopNNode{N: tt.n}).Process(context.Background(), nil, input())
			require.NoError(t, err)
			assert.Equal(t, tt.want, itemIDs(out))
		})
	}
}

func TestDiversity(t *testing.T) {
	input := func() []*core.Item {
		return []*core.Item{
			scored("t1", 0.9, "A"),
			scored("t2", 0.8, "A"),
			scored("t3", 0.7, "B"),
			scored("t4", 0.6, ""),
			scored("t5", 0.5, "A"),
		}
	}
	ctx := context.Background()

	out, err := (&Diversity{}).Process(ctx, nil, input())
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t3", "t4"}, itemIDs(out))

	out, err = (&Diversity{MaxPerKey: 2}).Process(ctx, nil, input())
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, itemIDs(out))

	out, err = (&Diversity{Demote: true}).Process(ctx, nil, input())
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t3", "t4", "t2", "t5"}, itemIDs(out))
}

func TestDiversityPrefersLabel(t *testing.T) {
	items := []*core.Item{scored("t1", 1, "A"), scored("t2", 1, "A")}
	items[1].PutLabel("genre", utils.Label{Value: "pop", Source: "rule"})
	items[0].PutLabel("genre", utils.Label{Value: "rock", Source: "rule"})

	out, err := (&Diversity{Key: "genre"}).Process(context.Background(), nil, items)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = (&Diversity{}).Process(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTopNNodeRequestK(t *testing.T) {
	items := []*core.Item{scored("a", 0.1, ""), scored("b", 0.9, ""), scored("c", 0.5, "")}
	rctx := core.NewRecommendContext("p1", 0)
	rctx.Params[core.ParamK] = 1

	out, err := (&TopNNode{N: 3}).Process(context.Background(), rctx, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, itemIDs(out))

	rctx.Params[core.ParamK] = 0
	out, err = (&TopNNode{N: 2}).Process(context.Background(), rctx, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, itemIDs(out))
}

func TestDiversityDemoteSurvivesTopN(t *testing.T) {
	items := []*core.Item{scored("a1", 3, "X"), scored("a2", 2, "X"), scored("b", 1, "Y")}
	ctx := context.Background()

	out, err := (&Diversity{MaxPerKey: 1, Demote: true}).Process(ctx, nil, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b", "a2"}, itemIDs(out))
	assert.Less(t, out[2].Score, out[1].Score)
	assert.Equal(t, "2", out[2].Labels[LabelDemoted].Value)

	out, err = (&TopNNode{N: 2}).Process(ctx, nil, out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b"}, itemIDs(out))
}

func TestDiversityDemoteKeepsRelativeOrder(t *testing.T) {
	items := []*core.Item{
		scored("a1", 0.9, "X"),
		scored("a2", 0.8, "X"),
		scored("a3", 0.85, "X"),
		scored("b", 0.1, "Y"),
	}
	out, err := (&Diversity{Demote: true}).Process(context.Background(), nil, items)
	require.NoError(t, err)

	out, err = (&TopNNode{}).Process(context.Background(), nil, out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b", "a3", "a2"}, itemIDs(out))
	_, demoted := out[1].Labels[LabelDemoted]
	assert.False(t, demoted)
}
