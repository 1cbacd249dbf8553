package backtest

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MSE is the mean squared error between actual and predicted. It returns NaN
// for empty or mismatched inputs.
func MSE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return math.NaN()
	}
	d := floats.Distance(actual, predicted, 2)
	return d * d / float64(len(actual))
}

// MAPE is the mean absolute percentage error, in percent. It returns NaN when
// any actual value is zero, or for empty or mismatched inputs.
func MAPE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return math.NaN()
	}
	var sum float64
	for i, a := range actual {
		if a == 0 {
			return math.NaN()
		}
		sum += math.Abs((a - predicted[i]) / a)
	}
	return sum / float64(len(actual)) * 100
}
