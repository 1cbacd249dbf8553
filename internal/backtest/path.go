// Package backtest rebuilds price paths from returns and scores them.
package backtest

import "math"

// Reconstruct compounds returns onto base: P[i] = P[i-1] * exp(r[i]).
// The result has len(returns)+1 points and starts with base.
func Reconstruct(base float64, returns []float64) []float64 {
	path := make([]float64, len(returns)+1)
	path[0] = base
	for i, r := range returns {
		path[i+1] = path[i] * math.Exp(r)
	}
	return path
}
