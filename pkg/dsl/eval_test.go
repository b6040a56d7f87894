package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/playgcn/core"
	"github.com/rushteam/playgcn/pkg/utils"
)

func testItem() *core.Item {
	it := core.NewItem("t4")
	it.Score = 0.8
	it.Meta[core.MetaArtist] = "Artist D"
	it.Meta[core.MetaNodeIndex] = 6
	it.PutLabel("recall_source", utils.Label{Value: "recall.embedding", Source: "recall"})
	return it
}

func TestProgramEval(t *testing.T) {
	rctx := core.NewRecommendContext("p1", 0)
	rctx.Params["min_score"] = 0.5

	tests := []struct {
		expr string
		want bool
	}{
		{`item.score > 0.7`, true},
		{`item.score < 0.5`, false},
		{`item.id == "t4"`, true},
		{`item.meta.track_artist == "Artist D"`, true},
		{`label.recall_source == "recall.embedding"`, true},
		{`label.recall_source.contains("popular")`, false},
		{`item.labels.recall_source.source == "recall"`, true},
		{`rctx.playlist_id == "p1" && rctx.playlist_index == 0`, true},
		{`item.score >= rctx.params.min_score`, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Compile(tt.expr)
			require.NoError(t, err)
			got, err := p.Eval(testItem(), rctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile("")
	assert.Error(t, err)

	_, err = Compile("item.score >")
	assert.Error(t, err)

	_, err = Compile(`"not a bool"`)
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile("(((") })
}

func TestEvalMissingKey(t *testing.T) {
	p := MustCompile(`label.missing == "x"`)
	_, err := p.Eval(testItem(), nil)
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	ok, err := Evaluate("", testItem(), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate(`item.score > 0.1`, testItem(), nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
