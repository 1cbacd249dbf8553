package dataset

import (
	"errors"
	"math"
	"testing"
)

func synthPrices(n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = 100 + 10*math.Sin(float64(i)/7) + float64(i)*0.05
	}
	return prices
}

func TestLogReturns_RoundTrip(t *testing.T) {
	prices := []float64{100, 101.5, 99.2, 99.2, 120, 0.5, 3}
	returns, err := LogReturns(prices)
	if err != nil {
		t.Fatalf("LogReturns: %v", err)
	}
	if len(returns) != len(prices)-1 {
		t.Fatalf("expected %d returns, got %d", len(prices)-1, len(returns))
	}
	p := prices[0]
	for i, r := range returns {
		p = (p+Epsilon)*math.Exp(r) - Epsilon
		if math.Abs(p-prices[i+1]) > 1e-9*prices[i+1] {
			t.Errorf("index %d: reconstructed %.12f, want %.12f", i+1, p, prices[i+1])
		}
	}
}

func TestLogReturns_InvalidSeries(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
	}{
		{"zero", []float64{1, 0, 2}},
		{"negative", []float64{1, 2, -3}},
		{"nan", []float64{1, math.NaN()}},
		{"inf", []float64{math.Inf(1), 1}},
	}
	for _, tt := range tests {
		if _, err := LogReturns(tt.prices); !errors.Is(err, ErrInvalidSeries) {
			t.Errorf("%s: expected ErrInvalidSeries, got %v", tt.name, err)
		}
	}
}

func TestLogReturns_TooShort(t *testing.T) {
	if _, err := LogReturns([]float64{5}); !errors.Is(err, ErrInsufficientHistory) {
		t.Errorf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestMinMaxScaler_RoundTrip(t *testing.T) {
	values := []float64{-0.031, 0.002, 0.017, -0.004, 0.044, 0}
	s := FitMinMax(values, -1, 1)
	scaled := s.TransformAll(values)
	for i, v := range scaled {
		if v < -1-1e-12 || v > 1+1e-12 {
			t.Errorf("scaled[%d]=%v outside [-1,1]", i, v)
		}
	}
	if scaled[0] != -1 || scaled[4] != 1 {
		t.Errorf("expected extremes at -1 and 1, got %v and %v", scaled[0], scaled[4])
	}
	back := s.InverseAll(scaled)
	for i := range values {
		if math.Abs(back[i]-values[i]) > 1e-6 {
			t.Errorf("index %d: inverse %v, want %v", i, back[i], values[i])
		}
	}
}

func TestMinMaxScaler_ConstantInput(t *testing.T) {
	s := FitMinMax([]float64{0.01, 0.01, 0.01}, -1, 1)
	if got := s.Transform(0.01); got != -1 {
		t.Errorf("expected -1 for constant input, got %v", got)
	}
	if got := s.Inverse(s.Transform(0.03)); math.Abs(got-0.03) > 1e-12 {
		t.Errorf("round trip on constant fit: got %v", got)
	}
}

func TestBuildWindows_CountAndLabels(t *testing.T) {
	scaled := []float64{0, 1, 2, 3, 4, 5, 6}
	xs, ys := BuildWindows(scaled, 3)
	if len(xs) != len(scaled)-3 {
		t.Fatalf("expected %d windows, got %d", len(scaled)-3, len(xs))
	}
	for i := range xs {
		if len(xs[i]) != 3 || xs[i][0] != float64(i) {
			t.Errorf("window %d: %v", i, xs[i])
		}
		if ys[i] != float64(i+3) {
			t.Errorf("label %d: %v", i, ys[i])
		}
	}
	if xs, _ := BuildWindows(scaled, 7); xs != nil {
		t.Errorf("expected no windows when seq_length == len, got %d", len(xs))
	}
}

func TestPrepare_SplitInvariant(t *testing.T) {
	for _, n := range []int{70, 101, 250, 500} {
		prices := synthPrices(n)
		d, err := Prepare(prices, 60, 0.8, FitFull)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		windows := n - 1 - 60
		if d.WindowCount() != windows {
			t.Errorf("n=%d: window count %d, want %d", n, d.WindowCount(), windows)
		}
		if len(d.TrainX) != int(float64(windows)*0.8) {
			t.Errorf("n=%d: train len %d, want %d", n, len(d.TrainX), int(float64(windows)*0.8))
		}
		if len(d.TrainX)+len(d.TestX) != windows || len(d.TrainY) != len(d.TrainX) || len(d.TestY) != len(d.TestX) {
			t.Errorf("n=%d: split sizes inconsistent", n)
		}
		if d.BaseTestIndex() != d.TrainLen+60 {
			t.Errorf("n=%d: base index %d", n, d.BaseTestIndex())
		}
		// the first test label is the return from the base price to the next one
		want := d.Scaler.Transform(math.Log(prices[d.BaseTestIndex()+1]+Epsilon) - math.Log(prices[d.BaseTestIndex()]+Epsilon))
		if math.Abs(d.TestY[0]-want) > 1e-12 {
			t.Errorf("n=%d: first test label %v, want %v", n, d.TestY[0], want)
		}
	}
}

func TestPrepare_InsufficientHistory(t *testing.T) {
	cases := []int{2, 60, 61, 62}
	for _, n := range cases {
		if _, err := Prepare(synthPrices(n), 60, 0.8, FitFull); !errors.Is(err, ErrInsufficientHistory) {
			t.Errorf("n=%d: expected ErrInsufficientHistory, got %v", n, err)
		}
	}
}

func TestPrepare_TrainFitUsesTrainingReturnsOnly(t *testing.T) {
	prices := synthPrices(200)
	prices[len(prices)-1] = prices[len(prices)-2] * 3 // outlier in the test period
	full, err := Prepare(prices, 20, 0.8, FitFull)
	if err != nil {
		t.Fatal(err)
	}
	train, err := Prepare(prices, 20, 0.8, FitTrain)
	if err != nil {
		t.Fatal(err)
	}
	if full.Scaler.Max <= train.Scaler.Max {
		t.Errorf("expected the full fit to see the outlier: full max %v, train max %v", full.Scaler.Max, train.Scaler.Max)
	}
	if train.TestY[len(train.TestY)-1] <= 1 {
		t.Errorf("expected the unseen outlier to scale above 1, got %v", train.TestY[len(train.TestY)-1])
	}
}
