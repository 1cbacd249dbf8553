// Package forecast runs the end-to-end pipeline for one ticker: returns,
// windows, training, backtest and future rollout, metrics and technicals.
package forecast

import (
	"context"
	"fmt"
	"time"

	"MarketForecast/internal/backtest"
	"MarketForecast/internal/calculator"
	"MarketForecast/internal/dataset"
	"MarketForecast/internal/lstm"
	"MarketForecast/internal/model"

	"github.com/rs/zerolog/log"
)

// Outcome is a forecast result plus the run details that stay off the wire.
type Outcome struct {
	Result       *model.ForecastResult
	Training     lstm.Report
	TrainSamples int
	TestSamples  int
	Duration     time.Duration
}

// Run produces a complete forecast for one ticker. It either returns a full
// result or an error from the forecast error taxonomy; it never returns a
// partial result. All state is owned by the call.
func Run(ctx context.Context, ticker string, series *model.PriceSeries, intraday *model.IntradaySeries, cfg Config) (*Outcome, error) {
	start := time.Now()
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("%s: %w: empty price series", ticker, ErrDataUnavailable)
	}
	if err := checkDates(series); err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}

	prices := series.Prices()
	ds, err := dataset.Prepare(prices, cfg.SeqLength, cfg.TrainSplit, cfg.scalerFit())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}

	logger := log.With().Str("ticker", ticker).Logger()
	trainer := lstm.NewTrainer(lstm.TrainConfig{
		Hidden:       cfg.HiddenSize,
		LearningRate: cfg.LearningRate,
		Epochs:       cfg.Epochs,
		Seed:         cfg.Seed,
	}, logger)
	report, err := trainer.Fit(ctx, ds.TrainX, ds.TrainY)
	if err != nil {
		return nil, fmt.Errorf("%s: train: %w", ticker, err)
	}

	predictor := trainer.Predictor()
	testPreds := predictor.PredictBatch(ds.TestX)
	futurePreds := predictor.Rollout(ds.TestX[len(ds.TestX)-1], cfg.FutureHorizon)

	base := prices[ds.BaseTestIndex()]
	actualPath := backtest.Reconstruct(base, ds.Scaler.InverseAll(ds.TestY))[1:]
	predPath := backtest.Reconstruct(base, ds.Scaler.InverseAll(testPreds))[1:]
	futurePath := backtest.Reconstruct(prices[len(prices)-1], ds.Scaler.InverseAll(futurePreds))[1:]

	mas, err := calculator.MovingAverages(prices, cfg.MAWindows)
	if err != nil {
		return nil, fmt.Errorf("%s: technicals: %w", ticker, err)
	}
	wireMAs := make(map[string][]model.Float, len(mas))
	for k, v := range mas {
		wireMAs[k] = model.Floats(v)
	}

	result := &model.ForecastResult{
		Ticker: ticker,
		Metrics: model.Metrics{
			MSE:  model.Float(backtest.MSE(actualPath, predPath)),
			MAPE: model.Float(backtest.MAPE(actualPath, predPath)),
		},
		Backtest: model.Backtest{
			Actual:    model.Floats(actualPath),
			Predicted: model.Floats(predPath),
		},
		Forecast:    model.Floats(futurePath),
		FullHistory: model.Floats(prices),
		Dates:       buildDates(series, cfg.FutureHorizon),
		Technicals: model.Technicals{
			MAs:         wireMAs,
			TrendPoints: calculator.TrendPoints(prices, cfg.ExtremaOrder),
		},
		Intraday:    wireIntraday(intraday),
		LastUpdated: time.Now().UTC(),
	}

	logger.Info().
		Int("train", len(ds.TrainX)).
		Int("test", len(ds.TestX)).
		Float64("loss", report.FinalLoss).
		Float64("mape", float64(result.Metrics.MAPE)).
		Dur("elapsed", time.Since(start)).
		Msg("forecast complete")

	return &Outcome{
		Result:       result,
		Training:     report,
		TrainSamples: len(ds.TrainX),
		TestSamples:  len(ds.TestX),
		Duration:     time.Since(start),
	}, nil
}

func checkDates(series *model.PriceSeries) error {
	for i := 1; i < len(series.Points); i++ {
		if !series.Points[i].Date.After(series.Points[i-1].Date) {
			return fmt.Errorf("%w: dates not strictly increasing at index %d", ErrInvalidSeries, i)
		}
	}
	return nil
}

func buildDates(series *model.PriceSeries, horizon int) []string {
	dates := make([]string, 0, series.Len()+horizon)
	for _, p := range series.Points {
		dates = append(dates, p.Date.Format(DateLayout))
	}
	last := series.Points[len(series.Points)-1].Date
	for _, d := range FutureBusinessDays(last, horizon) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}

func wireIntraday(s *model.IntradaySeries) *model.Intraday {
	if s == nil || len(s.Times) == 0 {
		return nil
	}
	out := &model.Intraday{
		Dates:  make([]string, len(s.Times)),
		Prices: model.Floats(s.Prices),
	}
	for i, t := range s.Times {
		out.Dates[i] = t.Format(IntradayLayout)
	}
	return out
}
