package forecast

import (
	"errors"

	"MarketForecast/internal/dataset"
	"MarketForecast/internal/lstm"
)

// Error taxonomy of a forecast run. Match with errors.Is.
var (
	ErrDataUnavailable     = errors.New("data unavailable")
	ErrInsufficientHistory = dataset.ErrInsufficientHistory
	ErrInvalidSeries       = dataset.ErrInvalidSeries
	ErrTrainingFailure     = lstm.ErrTrainingFailure
)

// ErrorKind classifies err for metrics labels and API responses.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, ErrInvalidSeries):
		return "invalid_series"
	case errors.Is(err, ErrTrainingFailure):
		return "training_failure"
	default:
		return "internal"
	}
}
