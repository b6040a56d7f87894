package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// 2 个歌单行 + 3 个曲目行
func sample() *mat.Dense {
	return mat.NewDense(5, 3, []float64{
		0, 0, 0,
		0, 0, 0,
		1, 10, 5,
		2, 20, 5,
		3, 60, 5,
	})
}

func TestNewScaler(t *testing.T) {
	for _, kind := range []string{"", ScalerNone, ScalerZScore, ScalerMinMax} {
		s, err := NewScaler(kind)
		require.NoError(t, err, kind)
		assert.NotNil(t, s)
	}
	_, err := NewScaler("robust")
	assert.Error(t, err)
}

func TestZScoreScaler(t *testing.T) {
	x := sample()
	s := &ZScoreScaler{}
	s.Fit(x, 2, 5)
	out := s.Transform(x)

	assert.InDeltaSlice(t, []float64{2, 30, 5}, s.Mean, 1e-12)
	assert.Equal(t, []float64{0, 0, 0}, mat.Row(nil, 0, out), "playlist rows stay zero")
	assert.Equal(t, []float64{0, 0, 0}, mat.Row(nil, 1, out))

	col0 := mat.Col(nil, 0, out)[2:]
	assert.InDelta(t, 0, col0[1], 1e-12)
	assert.InDelta(t, -col0[0], col0[2], 1e-12)
	assert.Equal(t, []float64{0, 0, 0}, mat.Col(nil, 2, out)[2:], "zero-variance column maps to zero")

	assert.Equal(t, 10.0, x.At(2, 1), "input is not modified")
}

func TestMinMaxScaler(t *testing.T) {
	x := sample()
	s := &MinMaxScaler{}
	s.Fit(x, 2, 5)
	out := s.Transform(x)

	assert.InDeltaSlice(t, []float64{0, 0.5, 1}, mat.Col(nil, 0, out)[2:], 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.2, 1}, mat.Col(nil, 1, out)[2:], 1e-12)
	assert.Equal(t, []float64{0, 0, 0}, mat.Col(nil, 2, out)[2:])
	assert.Equal(t, []float64{0, 0, 0}, mat.Row(nil, 0, out))
}

func TestIdentityScalerCopies(t *testing.T) {
	x := sample()
	s := &IdentityScaler{}
	s.Fit(x, 2, 5)
	out := s.Transform(x)
	assert.True(t, mat.Equal(x, out))
	out.Set(2, 0, 42)
	assert.Equal(t, 1.0, x.At(2, 0))
}
