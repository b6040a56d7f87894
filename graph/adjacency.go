package graph

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Adjacency 是 CSR 存储的 GCN 归一化邻接矩阵 Â = D^-1/2 (A + I) D^-1/2。
// A 中重复条目累加权重；Â 对称，因此前向与反向传播共用 Propagate。
type Adjacency struct {
	n      int
	rowPtr []int
	cols   []int
	vals   []float64
}

// Normalized 计算带自环的对称归一化邻接矩阵。
func (g *Graph) Normalized() *Adjacency {
	n := g.NumNodes
	rows := make([]map[int]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = map[int]float64{i: 1}
	}
	for k := range g.Src {
		rows[g.Src[k]][g.Dst[k]]++
	}

	deg := make([]float64, n)
	for i, r := range rows {
		for _, w := range r {
			deg[i] += w
		}
	}

	adj := &Adjacency{n: n, rowPtr: make([]int, n+1)}
	for i, r := range rows {
		cols := make([]int, 0, len(r))
		for j := range r {
			cols = append(cols, j)
		}
		sort.Ints(cols)
		for _, j := range cols {
			adj.cols = append(adj.cols, j)
			adj.vals = append(adj.vals, r[j]/math.Sqrt(deg[i]*deg[j]))
		}
		adj.rowPtr[i+1] = len(adj.cols)
	}
	return adj
}

// N 返回矩阵阶数。
func (a *Adjacency) N() int { return a.n }

// NNZ 返回非零元个数。
func (a *Adjacency) NNZ() int { return len(a.vals) }

// At 返回 Â[i][j]。
func (a *Adjacency) At(i, j int) float64 {
	lo, hi := a.rowPtr[i], a.rowPtr[i+1]
	k := sort.SearchInts(a.cols[lo:hi], j)
	if k < hi-lo && a.cols[lo+k] == j {
		return a.vals[lo+k]
	}
	return 0
}

// Propagate 计算 dst = Â · src。dst 为 nil 时新建，否则必须是 n×c 且会被覆盖。
func (a *Adjacency) Propagate(dst, src *mat.Dense) *mat.Dense {
	r, c := src.Dims()
	if r != a.n {
		panic(mat.ErrShape)
	}
	if dst == nil {
		dst = mat.NewDense(a.n, c, nil)
	} else {
		dst.Zero()
	}
	for i := 0; i < a.n; i++ {
		out := dst.RawRowView(i)
		for k := a.rowPtr[i]; k < a.rowPtr[i+1]; k++ {
			floats.AddScaled(out, a.vals[k], src.RawRowView(a.cols[k]))
		}
	}
	return dst
}

// Dense 把 Â 展开为稠密矩阵，仅用于调试与测试。
func (a *Adjacency) Dense() *mat.Dense {
	d := mat.NewDense(a.n, a.n, nil)
	for i := 0; i < a.n; i++ {
		for k := a.rowPtr[i]; k < a.rowPtr[i+1]; k++ {
			d.Set(i, a.cols[k], a.vals[k])
		}
	}
	return d
}
