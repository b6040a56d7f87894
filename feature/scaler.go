package feature

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler 对曲目行 [lo, hi) 做按列缩放；其余行（歌单）保持为零。
// Transform 返回新矩阵，不修改输入。
type Scaler interface {
	Name() string
	Fit(x *mat.Dense, lo, hi int)
	Transform(x *mat.Dense) *mat.Dense
}

// 缩放器名称。
const (
	ScalerNone   = "none"
	ScalerZScore = "zscore"
	ScalerMinMax = "minmax"
)

// NewScaler 按名称创建缩放器。
func NewScaler(kind string) (Scaler, error) {
	switch kind {
	case "", ScalerNone:
		return &IdentityScaler{}, nil
	case ScalerZScore:
		return &ZScoreScaler{}, nil
	case ScalerMinMax:
		return &MinMaxScaler{}, nil
	default:
		return nil, fmt.Errorf("unknown scaler: %s", kind)
	}
}

// IdentityScaler 不做任何变换（返回副本）。
type IdentityScaler struct{}

func (s *IdentityScaler) Name() string { return ScalerNone }

func (s *IdentityScaler) Fit(_ *mat.Dense, _, _ int) {}

func (s *IdentityScaler) Transform(x *mat.Dense) *mat.Dense {
	return mat.DenseCopyOf(x)
}

// ZScoreScaler: (v - mean) / std，std 使用总体标准差；std 为 0 的列输出 0。
type ZScoreScaler struct {
	Mean []float64
	Std  []float64
	lo   int
	hi   int
}

func (s *ZScoreScaler) Name() string { return ScalerZScore }

func (s *ZScoreScaler) Fit(x *mat.Dense, lo, hi int) {
	_, c := x.Dims()
	s.lo, s.hi = lo, hi
	s.Mean = make([]float64, c)
	s.Std = make([]float64, c)
	if hi <= lo {
		return
	}
	col := make([]float64, hi-lo)
	for j := 0; j < c; j++ {
		for i := lo; i < hi; i++ {
			col[i-lo] = x.At(i, j)
		}
		s.Mean[j], s.Std[j] = stat.PopMeanStdDev(col, nil)
	}
}

func (s *ZScoreScaler) Transform(x *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(x)
	for i := s.lo; i < s.hi; i++ {
		row := out.RawRowView(i)
		for j := range row {
			if s.Std[j] == 0 {
				row[j] = 0
				continue
			}
			row[j] = (row[j] - s.Mean[j]) / s.Std[j]
		}
	}
	return out
}

// MinMaxScaler: (v - min) / (max - min)，区间为 0 的列输出 0。
type MinMaxScaler struct {
	Min []float64
	Max []float64
	lo  int
	hi  int
}

func (s *MinMaxScaler) Name() string { return ScalerMinMax }

func (s *MinMaxScaler) Fit(x *mat.Dense, lo, hi int) {
	_, c := x.Dims()
	s.lo, s.hi = lo, hi
	s.Min = make([]float64, c)
	s.Max = make([]float64, c)
	if hi <= lo {
		return
	}
	col := make([]float64, hi-lo)
	for j := 0; j < c; j++ {
		for i := lo; i < hi; i++ {
			col[i-lo] = x.At(i, j)
		}
		s.Min[j] = floats.Min(col)
		s.Max[j] = floats.Max(col)
	}
}

func (s *MinMaxScaler) Transform(x *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(x)
	for i := s.lo; i < s.hi; i++ {
		row := out.RawRowView(i)
		for j := range row {
			span := s.Max[j] - s.Min[j]
			if span == 0 {
				row[j] = 0
				continue
			}
			row[j] = (row[j] - s.Min[j]) / span
		}
	}
	return out
}
