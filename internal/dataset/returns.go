// Package dataset turns a raw price array into scaled, windowed training data.
package dataset

import (
	"errors"
	"fmt"
	"math"
)

// Epsilon guards the logarithm against zero prices.
const Epsilon = 1e-8

var (
	ErrInvalidSeries       = errors.New("invalid price series")
	ErrInsufficientHistory = errors.New("insufficient price history")
)

// LogReturns converts N prices into N-1 log returns, ln(p[i+1]+ε) - ln(p[i]+ε).
// Non-finite or non-positive prices are rejected with ErrInvalidSeries.
func LogReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 prices, got %d", ErrInsufficientHistory, len(prices))
	}
	logs := make([]float64, len(prices))
	for i, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return nil, fmt.Errorf("%w: price %v at index %d", ErrInvalidSeries, p, i)
		}
		logs[i] = math.Log(p + Epsilon)
	}
	returns := make([]float64, len(prices)-1)
	for i := range returns {
		returns[i] = logs[i+1] - logs[i]
	}
	return returns, nil
}
