package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"MarketForecast/internal/model"
)

func synthSeries(n int) *model.PriceSeries {
	s := &model.PriceSeries{Ticker: "TEST"}
	d := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC) // Monday
	for i := 0; i < n; i++ {
		price := 100 + 8*math.Sin(float64(i)/6) + float64(i)*0.1
		s.Points = append(s.Points, model.PricePoint{Date: d, Price: price})
		d = FutureBusinessDays(d, 1)[0]
	}
	return s
}

func smallConfig() Config {
	return Config{
		SeqLength:     20,
		Epochs:        3,
		FutureHorizon: 5,
		HiddenSize:    4,
		MAWindows:     []int{5, 10},
		ExtremaOrder:  3,
		Seed:          1,
	}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.SeqLength != 60 || c.TrainSplit != 0.8 || c.Epochs != 15 || c.FutureHorizon != 10 {
		t.Errorf("unexpected pipeline defaults %+v", c)
	}
	if c.HiddenSize != 50 || c.LearningRate != 0.001 || c.ExtremaOrder != 10 || c.ScalerFit != "full" {
		t.Errorf("unexpected model defaults %+v", c)
	}
	want := []int{15, 30, 60, 180}
	if len(c.MAWindows) != len(want) {
		t.Fatalf("unexpected ma windows %v", c.MAWindows)
	}
	for i := range want {
		if c.MAWindows[i] != want[i] {
			t.Errorf("ma window %d: got %d, want %d", i, c.MAWindows[i], want[i])
		}
	}
}

func TestConfig_Validation(t *testing.T) {
	bad := []Config{
		{TrainSplit: 1.5},
		{ScalerFit: "median"},
		{MAWindows: []int{10, -1}},
		{SeqLength: -2},
	}
	for i, c := range bad {
		if err := c.Normalize(); err == nil {
			t.Errorf("case %d: expected validation error for %+v", i, c)
		}
	}
}

func TestFutureBusinessDays_SkipsWeekends(t *testing.T) {
	friday := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	days := FutureBusinessDays(friday, 6)
	want := []string{"2026-10-19", "2026-10-20", "2026-10-21", "2026-10-22", "2026-10-23", "2026-10-26"}
	if len(days) != len(want) {
		t.Fatalf("expected %d days, got %d", len(want), len(days))
	}
	for i, d := range days {
		if got := d.Format(DateLayout); got != want[i] {
			t.Errorf("day %d: got %s, want %s", i, got, want[i])
		}
	}
}

func TestRun_EndToEnd(t *testing.T) {
	series := synthSeries(150)
	intraday := &model.IntradaySeries{
		Times:  []time.Time{time.Date(2025, 8, 1, 14, 30, 0, 0, time.UTC)},
		Prices: []float64{101.5},
	}
	out, err := Run(context.Background(), "TEST", series, intraday, smallConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := out.Result

	windows := 149 - 20
	trainLen := int(float64(windows) * 0.8)
	if out.TrainSamples != trainLen || out.TestSamples != windows-trainLen {
		t.Errorf("unexpected split %d/%d", out.TrainSamples, out.TestSamples)
	}
	if len(res.Backtest.Actual) != out.TestSamples || len(res.Backtest.Predicted) != out.TestSamples {
		t.Errorf("backtest lengths %d/%d, want %d", len(res.Backtest.Actual), len(res.Backtest.Predicted), out.TestSamples)
	}
	if len(res.Forecast) != 5 {
		t.Errorf("expected 5 forecast points, got %d", len(res.Forecast))
	}
	if len(res.FullHistory) != 150 || len(res.Dates) != 155 {
		t.Errorf("history %d, dates %d", len(res.FullHistory), len(res.Dates))
	}
	if out.Training.Epochs != 3 {
		t.Errorf("expected 3 epochs, got %d", out.Training.Epochs)
	}

	// the actual backtest path retraces the true prices after the base index
	prices := series.Prices()
	base := trainLen + 20
	for i, v := range res.Backtest.Actual {
		if math.Abs(float64(v)-prices[base+1+i]) > 1e-6 {
			t.Fatalf("actual[%d]=%v, want %v", i, v, prices[base+1+i])
		}
	}
	if !res.Metrics.MSE.Valid() || !res.Metrics.MAPE.Valid() {
		t.Errorf("expected finite metrics, got %+v", res.Metrics)
	}
	if len(res.Technicals.MAs["ma5"]) != 150 || len(res.Technicals.MAs["ma10"]) != 150 {
		t.Errorf("unexpected moving averages %v", res.Technicals.MAs)
	}
	if res.Intraday == nil || res.Intraday.Dates[0] != "2025-08-01 14:30" {
		t.Errorf("intraday not passed through: %+v", res.Intraday)
	}
	if _, err := json.Marshal(res); err != nil {
		t.Errorf("result does not serialize: %v", err)
	}
}

func TestRun_Errors(t *testing.T) {
	cfg := smallConfig()

	if _, err := Run(context.Background(), "X", nil, nil, cfg); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("nil series: expected ErrDataUnavailable, got %v", err)
	}
	if _, err := Run(context.Background(), "X", synthSeries(20), nil, cfg); !errors.Is(err, ErrInsufficientHistory) {
		t.Errorf("seq_length prices: expected ErrInsufficientHistory, got %v", err)
	}

	bad := synthSeries(100)
	bad.Points[50].Price = -1
	if _, err := Run(context.Background(), "X", bad, nil, cfg); !errors.Is(err, ErrInvalidSeries) {
		t.Errorf("negative price: expected ErrInvalidSeries, got %v", err)
	}

	unordered := synthSeries(100)
	unordered.Points[10].Date = unordered.Points[9].Date
	if _, err := Run(context.Background(), "X", unordered, nil, cfg); !errors.Is(err, ErrInvalidSeries) {
		t.Errorf("repeated date: expected ErrInvalidSeries, got %v", err)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		kind string
	}{
		{nil, ""},
		{ErrDataUnavailable, "data_unavailable"},
		{ErrInsufficientHistory, "insufficient_history"},
		{ErrInvalidSeries, "invalid_series"},
		{ErrTrainingFailure, "training_failure"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.kind {
			t.Errorf("%v: got %q, want %q", tt.err, got, tt.kind)
		}
	}
}

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		valid bool
	}{
		{"aapl", "AAPL", true},
		{" brk-b ", "BRK-B", true},
		{"^gspc", "^GSPC", true},
		{"eurusd=x", "EURUSD=X", true},
		{"", "", false},
		{"AA PL", "AA PL", false},
		{"../etc", "../ETC", false},
		{"ABCDEFGHIJKLMNOP", "ABCDEFGHIJKLMNOP", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeTicker(tt.in)
		if got != tt.want || ok != tt.valid {
			t.Errorf("NormalizeTicker(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.valid)
		}
	}
}
