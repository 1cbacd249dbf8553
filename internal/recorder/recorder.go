package recorder

import "time"

// ForecastRun is one forecast attempt for a ticker, successful or not.
// Metric fields are NaN when not available.
type ForecastRun struct {
	Time         time.Time
	Ticker       string
	Status       string // "ok" or the error kind
	Error        string
	LastPrice    float64
	HorizonPrice float64
	MSE          float64
	MAPE         float64
	FinalLoss    float64
	Epochs       int
	TrainSamples int
	TestSamples  int
	Duration     time.Duration
}

// RefreshRun summarises one scheduled watchlist refresh.
type RefreshRun struct {
	Started   time.Time
	Finished  time.Time
	Tickers   int
	Succeeded int
	Failed    int
}

// Recorder persists run history for analysis.
type Recorder interface {
	RecordForecast(run *ForecastRun) error
	RecordRefresh(run *RefreshRun) error
	RecentRuns(ticker string, limit int) ([]ForecastRun, error)
	Close() error
}
