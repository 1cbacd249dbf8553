package calculator

import "MarketForecast/internal/model"

// Extremum is a local peak or valley of a price array.
type Extremum struct {
	Index int
	Value float64
	Kind  model.ExtremumKind
}

// LocalExtrema finds points strictly above (peaks) or below (valleys) every
// neighbour within order positions on both sides. Points closer than order to
// either end lack a full neighbourhood and never qualify. Both results are
// sorted by index.
func LocalExtrema(prices []float64, order int) (peaks, valleys []Extremum) {
	if order < 1 {
		return nil, nil
	}
	for i := order; i < len(prices)-order; i++ {
		isPeak, isValley := true, true
		for j := i - order; j <= i+order && (isPeak || isValley); j++ {
			if j == i {
				continue
			}
			if prices[i] <= prices[j] {
				isPeak = false
			}
			if prices[i] >= prices[j] {
				isValley = false
			}
		}
		if isPeak {
			peaks = append(peaks, Extremum{Index: i, Value: prices[i], Kind: model.KindPeak})
		}
		if isValley {
			valleys = append(valleys, Extremum{Index: i, Value: prices[i], Kind: model.KindValley})
		}
	}
	return peaks, valleys
}

// TrendPoints returns peaks followed by valleys in wire form.
func TrendPoints(prices []float64, order int) []model.TrendPoint {
	peaks, valleys := LocalExtrema(prices, order)
	points := make([]model.TrendPoint, 0, len(peaks)+len(valleys))
	for _, e := range append(peaks, valleys...) {
		points = append(points, model.TrendPoint{Index: e.Index, Value: model.Float(e.Value), Kind: e.Kind})
	}
	return points
}
