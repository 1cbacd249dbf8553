package lstm

import "math"

// adam keeps first and second moment estimates per parameter.
type adam struct {
	lr, beta1, beta2, eps float64
	t                     int
	m, v                  [][]float64
}

func newAdam(lr float64, params [][]float64) *adam {
	a := &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-8}
	for _, p := range params {
		a.m = append(a.m, make([]float64, len(p)))
		a.v = append(a.v, make([]float64, len(p)))
	}
	return a
}

func (a *adam) step(params, grads [][]float64) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))
	for i, p := range params {
		g, m, v := grads[i], a.m[i], a.v[i]
		for k := range p {
			m[k] = a.beta1*m[k] + (1-a.beta1)*g[k]
			v[k] = a.beta2*v[k] + (1-a.beta2)*g[k]*g[k]
			p[k] -= a.lr * (m[k] / c1) / (math.Sqrt(v[k]/c2) + a.eps)
		}
	}
}
