package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
)

// RollingSMA computes the simple moving average at every position of prices.
// The first period-1 positions have no full window and are NaN.
func RollingSMA(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := make([]float64, len(prices))
	if period == 1 {
		copy(out, prices)
		return out, nil
	}
	if len(prices) >= period {
		copy(out, talib.Sma(prices, period))
	}
	for i := 0; i < period-1 && i < len(out); i++ {
		out[i] = math.NaN()
	}
	return out, nil
}

// MovingAverages computes one rolling SMA per period, keyed "ma<period>".
func MovingAverages(prices []float64, periods []int) (map[string][]float64, error) {
	mas := make(map[string][]float64, len(periods))
	for _, p := range periods {
		series, err := RollingSMA(prices, p)
		if err != nil {
			return nil, fmt.Errorf("ma%d: %w", p, err)
		}
		mas[fmt.Sprintf("ma%d", p)] = series
	}
	return mas, nil
}
