package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Adam 优化器（Kingma & Ba, 2015）。
type Adam struct {
	LR    float64
	Beta1 float64
	Beta2 float64
	Eps   float64

	t int
	m []*mat.Dense
	v []*mat.Dense
}

// NewAdam 使用常用默认值 β1=0.9, β2=0.999, ε=1e-8。
func NewAdam(lr float64) *Adam {
	return &Adam{LR: lr, Beta1: 0.9, Beta2: 0.999, Eps: 1e-8}
}

// Step 对 params 原地执行一次更新。params 与 grads 按位置一一对应且形状一致。
func (o *Adam) Step(params, grads []*mat.Dense) {
	if o.m == nil {
		o.m = make([]*mat.Dense, len(params))
		o.v = make([]*mat.Dense, len(params))
		for i, p := range params {
			r, c := p.Dims()
			o.m[i] = mat.NewDense(r, c, nil)
			o.v[i] = mat.NewDense(r, c, nil)
		}
	}
	o.t++
	bc1 := 1 - math.Pow(o.Beta1, float64(o.t))
	bc2 := 1 - math.Pow(o.Beta2, float64(o.t))

	for i, p := range params {
		r, c := p.Dims()
		for a := 0; a < r; a++ {
			pr := p.RawRowView(a)
			gr := grads[i].RawRowView(a)
			mr := o.m[i].RawRowView(a)
			vr := o.v[i].RawRowView(a)
			for b := 0; b < c; b++ {
				g := gr[b]
				mr[b] = o.Beta1*mr[b] + (1-o.Beta1)*g
				vr[b] = o.Beta2*vr[b] + (1-o.Beta2)*g*g
				mHat := mr[b] / bc1
				vHat := vr[b] / bc2
				pr[b] -= o.LR * mHat / (math.Sqrt(vHat) + o.Eps)
			}
		}
	}
}
