package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/playgcn/graph"
)

// GCN 是两层图卷积网络。
//
// 前向传播：
//  1. U1 = Â·X·W1 + b1
//  2. H1 = ReLU(U1)
//  3. Z  = Â·H1·W2 + b2
//
// Z 的每一行是一个节点的 Embedding，歌单与曲目的相似度为行向量内积。
type GCN struct {
	W1 *mat.Dense // In × Hidden
	B1 *mat.Dense // 1 × Hidden
	W2 *mat.Dense // Hidden × Out
	B2 *mat.Dense // 1 × Out
}

// NewGCN 创建 GCN，权重使用 Glorot 均匀分布初始化，偏置为 0。
func NewGCN(in, hidden, out int, rng *rand.Rand) *GCN {
	return &GCN{
		W1: glorot(in, hidden, rng),
		B1: mat.NewDense(1, hidden, nil),
		W2: glorot(hidden, out, rng),
		B2: mat.NewDense(1, out, nil),
	}
}

func glorot(fanIn, fanOut int, rng *rand.Rand) *mat.Dense {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	data := make([]float64, fanIn*fanOut)
	for i := range data {
		data[i] = (2*rng.Float64() - 1) * limit
	}
	return mat.NewDense(fanIn, fanOut, data)
}

// Dims 返回 (输入维度, 隐层维度, 输出维度)。
func (m *GCN) Dims() (in, hidden, out int) {
	in, hidden = m.W1.Dims()
	_, out = m.W2.Dims()
	return in, hidden, out
}

// Params 按 W1, B1, W2, B2 顺序返回参数，与 Gradients.List 对应。
func (m *GCN) Params() []*mat.Dense {
	return []*mat.Dense{m.W1, m.B1, m.W2, m.B2}
}

// Activations 缓存前向传播的中间结果，供反向传播使用。
type Activations struct {
	AX *mat.Dense // Â·X
	U1 *mat.Dense // 第一层线性输出
	H1 *mat.Dense // ReLU(U1)
	AH *mat.Dense // Â·H1
	Z  *mat.Dense // 输出 Embedding
}

// Forward 执行一次全图前向传播。
func (m *GCN) Forward(adj *graph.Adjacency, x *mat.Dense) *Activations {
	acts := &Activations{}
	acts.AX = adj.Propagate(nil, x)

	acts.U1 = &mat.Dense{}
	acts.U1.Mul(acts.AX, m.W1)
	addBias(acts.U1, m.B1)

	acts.H1 = mat.DenseCopyOf(acts.U1)
	acts.H1.Apply(func(_, _ int, v float64) float64 { return math.Max(v, 0) }, acts.H1)

	acts.AH = adj.Propagate(nil, acts.H1)

	acts.Z = &mat.Dense{}
	acts.Z.Mul(acts.AH, m.W2)
	addBias(acts.Z, m.B2)
	return acts
}

// Embed 返回全部节点的 Embedding。
func (m *GCN) Embed(adj *graph.Adjacency, x *mat.Dense) *mat.Dense {
	return m.Forward(adj, x).Z
}

// Gradients 是各参数的梯度，形状与参数一致。
type Gradients struct {
	W1 *mat.Dense
	B1 *mat.Dense
	W2 *mat.Dense
	B2 *mat.Dense
}

// List 按 W1, B1, W2, B2 顺序返回梯度。
func (g *Gradients) List() []*mat.Dense {
	return []*mat.Dense{g.W1, g.B1, g.W2, g.B2}
}

// Backward 根据 dL/dZ 计算参数梯度。Â 对称，Âᵀ·G 直接复用 Propagate。
func (m *GCN) Backward(adj *graph.Adjacency, acts *Activations, dZ *mat.Dense) *Gradients {
	grads := &Gradients{W1: &mat.Dense{}, W2: &mat.Dense{}}

	grads.W2.Mul(acts.AH.T(), dZ)
	grads.B2 = colSum(dZ)

	var dAH mat.Dense
	dAH.Mul(dZ, m.W2.T())
	dU1 := adj.Propagate(nil, &dAH)
	dU1.Apply(func(i, j int, v float64) float64 {
		if acts.U1.At(i, j) > 0 {
			return v
		}
		return 0
	}, dU1)

	grads.W1.Mul(acts.AX.T(), dU1)
	grads.B1 = colSum(dU1)
	return grads
}

// Score 返回节点 a 与 b 的 Embedding 内积。
func Score(z *mat.Dense, a, b int) float64 {
	return floats.Dot(z.RawRowView(a), z.RawRowView(b))
}

func addBias(m, bias *mat.Dense) {
	b := bias.RawRowView(0)
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		floats.Add(m.RawRowView(i), b)
	}
}

func colSum(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(1, c, nil)
	sum := out.RawRowView(0)
	for i := 0; i < r; i++ {
		floats.Add(sum, m.RawRowView(i))
	}
	return out
}
