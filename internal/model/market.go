package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64 // 0 when the provider does not adjust
	Volume   float64
}

// PricePoint is one dated close of a PriceSeries.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// PriceSeries holds the chronologically ordered daily closes of one ticker.
type PriceSeries struct {
	Ticker    string
	Points    []PricePoint
	FetchedAt time.Time
}

// Len returns the number of points in the series.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Prices returns the raw price array.
func (s *PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// IntradaySeries holds intraday bars passed through to callers untouched.
type IntradaySeries struct {
	Times  []time.Time
	Prices []float64
}

// SeriesFromBars builds a PriceSeries from daily bars, preferring the adjusted close.
// Bars are expected in chronological order; a bar sharing a calendar day with its
// predecessor replaces it.
func SeriesFromBars(ticker string, bars []OHLCV) *PriceSeries {
	s := &PriceSeries{Ticker: ticker, Points: make([]PricePoint, 0, len(bars)), FetchedAt: time.Now()}
	for _, b := range bars {
		price := b.Close
		if b.AdjClose != 0 {
			price = b.AdjClose
		}
		day := time.Date(b.Time.Year(), b.Time.Month(), b.Time.Day(), 0, 0, 0, 0, time.UTC)
		if n := len(s.Points); n > 0 && s.Points[n-1].Date.Equal(day) {
			s.Points[n-1].Price = price
			continue
		}
		s.Points = append(s.Points, PricePoint{Date: day, Price: price})
	}
	return s
}

// IntradayFromBars builds an IntradaySeries from intraday bars.
func IntradayFromBars(bars []OHLCV) *IntradaySeries {
	if len(bars) == 0 {
		return nil
	}
	s := &IntradaySeries{
		Times:  make([]time.Time, len(bars)),
		Prices: make([]float64, len(bars)),
	}
	for i, b := range bars {
		s.Times[i] = b.Time
		s.Prices[i] = b.Close
	}
	return s
}
