package lstm

// Predictor runs forward passes on frozen weights. It is safe for concurrent use.
type Predictor struct {
	net *Network
}

// Predict returns the next scaled value following window.
func (p *Predictor) Predict(window []float64) float64 {
	H := p.net.Hidden
	h, c := make([]float64, H), make([]float64, H)
	hNext, cNext := make([]float64, H), make([]float64, H)
	gates := make([]float64, 4*H)
	for _, x := range window {
		p.net.cell(x, h, c, gates, hNext, cNext)
		h, hNext = hNext, h
		c, cNext = cNext, c
	}
	return p.net.head(h)
}

// PredictBatch returns one prediction per window.
func (p *Predictor) PredictBatch(windows [][]float64) []float64 {
	out := make([]float64, len(windows))
	for i, w := range windows {
		out[i] = p.Predict(w)
	}
	return out
}

// Rollout forecasts horizon steps autoregressively: each prediction is appended
// to the window and the oldest value dropped. last is not modified.
func (p *Predictor) Rollout(last []float64, horizon int) []float64 {
	window := append([]float64(nil), last...)
	out := make([]float64, 0, horizon)
	for i := 0; i < horizon; i++ {
		next := p.Predict(window)
		out = append(out, next)
		if len(window) > 0 {
			copy(window, window[1:])
			window[len(window)-1] = next
		}
	}
	return out
}
