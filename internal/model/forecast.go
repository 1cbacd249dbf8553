package model

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// Float is a float64 that serializes NaN and ±Inf as JSON null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to NaN.
func (f *Float) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Valid reports whether f is a finite number.
func (f Float) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Floats converts a float64 slice into its wire form.
func Floats(values []float64) []Float {
	out := make([]Float, len(values))
	for i, v := range values {
		out[i] = Float(v)
	}
	return out
}

// ExtremumKind labels a trend point.
type ExtremumKind string

const (
	KindPeak   ExtremumKind = "peak"
	KindValley ExtremumKind = "valley"
)

// TrendPoint is a local extremum of the price history.
type TrendPoint struct {
	Index int          `json:"index"`
	Value Float        `json:"value"`
	Kind  ExtremumKind `json:"kind"`
}

// Metrics holds backtest accuracy in price space.
type Metrics struct {
	MSE  Float `json:"mse"`
	MAPE Float `json:"mape"`
}

// Backtest holds the reconstructed test-period paths, seed excluded.
type Backtest struct {
	Actual    []Float `json:"actual"`
	Predicted []Float `json:"predicted"`
}

// Technicals holds the overlays derived from the full history.
type Technicals struct {
	MAs         map[string][]Float `json:"mas"`
	TrendPoints []TrendPoint       `json:"trend_points"`
}

// Intraday is the wire form of an IntradaySeries.
type Intraday struct {
	Dates  []string `json:"dates"`
	Prices []Float  `json:"prices"`
}

// ForecastResult is the complete output of one forecast run.
type ForecastResult struct {
	Ticker      string     `json:"ticker"`
	Metrics     Metrics    `json:"metrics"`
	Backtest    Backtest   `json:"backtest"`
	Forecast    []Float    `json:"forecast"`
	FullHistory []Float    `json:"full_history"`
	Dates       []string   `json:"dates"`
	Technicals  Technicals `json:"technicals"`
	Intraday    *Intraday  `json:"intraday"`
	LastUpdated time.Time  `json:"last_updated"`
}

// LastPrice returns the final historical price, or NaN for an empty history.
func (r *ForecastResult) LastPrice() float64 {
	if len(r.FullHistory) == 0 {
		return math.NaN()
	}
	return float64(r.FullHistory[len(r.FullHistory)-1])
}

// HorizonPrice returns the last forecast price, or NaN when there is no forecast.
func (r *ForecastResult) HorizonPrice() float64 {
	if len(r.Forecast) == 0 {
		return math.NaN()
	}
	return float64(r.Forecast[len(r.Forecast)-1])
}
