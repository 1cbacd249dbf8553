// Package lstm implements a single-layer LSTM regressor over univariate sequences.
//
// A Trainer owns the mutable weights, gradient buffers and optimizer state for one
// training run. Predictor is the inference-only form: it holds a frozen copy of the
// weights and performs forward computation only.
package lstm

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Network is an LSTM layer with input width 1 followed by a linear head.
// Gate blocks are laid out as input, forget, cell, output.
type Network struct {
	Hidden int
	Wx     []float64 // 4H
	Wh     []float64 // 4H x H, row-major
	B      []float64 // 4H
	Wy     []float64 // H
	By     []float64 // 1

	wh *mat.Dense // view over Wh
}

func newZeroNetwork(hidden int) *Network {
	n := &Network{
		Hidden: hidden,
		Wx:     make([]float64, 4*hidden),
		Wh:     make([]float64, 4*hidden*hidden),
		B:      make([]float64, 4*hidden),
		Wy:     make([]float64, hidden),
		By:     make([]float64, 1),
	}
	n.wh = mat.NewDense(4*hidden, hidden, n.Wh)
	return n
}

// NewNetwork initializes every weight uniformly in ±1/sqrt(hidden).
func NewNetwork(hidden int, rng *rand.Rand) *Network {
	n := newZeroNetwork(hidden)
	k := 1 / math.Sqrt(float64(hidden))
	for _, p := range n.tensors() {
		for i := range p {
			p[i] = (rng.Float64()*2 - 1) * k
		}
	}
	return n
}

func (n *Network) tensors() [][]float64 {
	return [][]float64{n.Wx, n.Wh, n.B, n.Wy, n.By}
}

func (n *Network) clone() *Network {
	c := newZeroNetwork(n.Hidden)
	src := n.tensors()
	for i, dst := range c.tensors() {
		copy(dst, src[i])
	}
	return c
}

func (n *Network) zero() {
	for _, p := range n.tensors() {
		clear(p)
	}
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// cell advances the recurrence by one step. gates receives the activated
// i, f, g, o blocks; h and c receive the new state and must not alias hPrev or cPrev.
func (n *Network) cell(x float64, hPrev, cPrev, gates, h, c []float64) {
	H := n.Hidden
	mat.NewVecDense(4*H, gates).MulVec(n.wh, mat.NewVecDense(H, hPrev))
	floats.Add(gates, n.B)
	floats.AddScaled(gates, x, n.Wx)
	for j := 0; j < H; j++ {
		ig := sigmoid(gates[j])
		fg := sigmoid(gates[H+j])
		gg := math.Tanh(gates[2*H+j])
		og := sigmoid(gates[3*H+j])
		gates[j], gates[H+j], gates[2*H+j], gates[3*H+j] = ig, fg, gg, og
		c[j] = fg*cPrev[j] + ig*gg
		h[j] = og * math.Tanh(c[j])
	}
}

func (n *Network) head(h []float64) float64 {
	return n.By[0] + floats.Dot(n.Wy, h)
}

// trace records the activations of one sequence for backpropagation.
// h[0] and c[0] are the zero initial state.
type trace struct {
	gates [][]float64
	h, c  [][]float64
}

func newTrace(steps, hidden int) *trace {
	tr := &trace{
		gates: make([][]float64, steps),
		h:     make([][]float64, steps+1),
		c:     make([][]float64, steps+1),
	}
	for t := range tr.gates {
		tr.gates[t] = make([]float64, 4*hidden)
	}
	for t := range tr.h {
		tr.h[t] = make([]float64, hidden)
		tr.c[t] = make([]float64, hidden)
	}
	return tr
}

func (n *Network) forwardTrace(x []float64, tr *trace) float64 {
	for t, xv := range x {
		n.cell(xv, tr.h[t], tr.c[t], tr.gates[t], tr.h[t+1], tr.c[t+1])
	}
	return n.head(tr.h[len(x)])
}

// scratch holds the per-sample backward buffers.
type scratch struct {
	dh, dc, dhPrev, dz []float64
}

func newScratch(hidden int) *scratch {
	return &scratch{
		dh:     make([]float64, hidden),
		dc:     make([]float64, hidden),
		dhPrev: make([]float64, hidden),
		dz:     make([]float64, 4*hidden),
	}
}

// backward accumulates into g the gradient of the loss given dy = dL/dŷ for the
// sequence recorded in tr.
func (n *Network) backward(x []float64, tr *trace, dy float64, g *Network, s *scratch) {
	H := n.Hidden
	T := len(x)
	floats.AddScaled(g.Wy, dy, tr.h[T])
	floats.ScaleTo(s.dh, dy, n.Wy)
	clear(s.dc)
	g.By[0] += dy

	dz := mat.NewVecDense(4*H, s.dz)
	for t := T - 1; t >= 0; t-- {
		gates, c, cPrev, hPrev := tr.gates[t], tr.c[t+1], tr.c[t], tr.h[t]
		for j := 0; j < H; j++ {
			ig, fg, gg, og := gates[j], gates[H+j], gates[2*H+j], gates[3*H+j]
			tc := math.Tanh(c[j])
			dc := s.dc[j] + s.dh[j]*og*(1-tc*tc)
			s.dz[j] = dc * gg * ig * (1 - ig)
			s.dz[H+j] = dc * cPrev[j] * fg * (1 - fg)
			s.dz[2*H+j] = dc * ig * (1 - gg*gg)
			s.dz[3*H+j] = s.dh[j] * tc * og * (1 - og)
			s.dc[j] = dc * fg
		}
		floats.AddScaled(g.Wx, x[t], s.dz)
		floats.Add(g.B, s.dz)
		g.wh.RankOne(g.wh, 1, dz, mat.NewVecDense(H, hPrev))
		// dh for step t-1 is Whᵀ·dz
		mat.NewVecDense(H, s.dhPrev).MulVec(n.wh.T(), dz)
		s.dh, s.dhPrev = s.dhPrev, s.dh
	}
}

// accumulate computes the mean squared error over the batch and adds its
// gradient into g. The caller zeroes g beforehand.
func (n *Network) accumulate(xs [][]float64, ys []float64, g *Network, tr *trace, s *scratch) float64 {
	N := float64(len(xs))
	var loss float64
	for i, x := range xs {
		if len(tr.gates) != len(x) {
			tr = newTrace(len(x), n.Hidden)
		}
		diff := n.forwardTrace(x, tr) - ys[i]
		loss += diff * diff
		n.backward(x, tr, 2*diff/N, g, s)
	}
	return loss / N
}
