package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"MarketForecast/internal/forecast"
	"MarketForecast/internal/model"
	"MarketForecast/internal/recorder"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Forecaster serves forecast results; refresh bypasses any cache.
type Forecaster interface {
	Get(ctx context.Context, ticker string, refresh bool) (*model.ForecastResult, error)
	Invalidate(ctx context.Context, ticker string) error
}

type errorBody struct {
	Error string `json:"error"`
}

// Handler implements the forecast HTTP routes.
type Handler struct {
	forecaster Forecaster
	recorder   recorder.Recorder
	watchlist  []string
}

// NewHandler creates a Handler. A nil recorder serves empty run history.
func NewHandler(f Forecaster, rec recorder.Recorder, watchlist []string) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Handler{forecaster: f, recorder: rec, watchlist: watchlist}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/predict/:ticker", h.Predict)
	g.DELETE("/predict/:ticker", h.Invalidate)
	g.GET("/top10", h.Top10)
	g.GET("/runs/:ticker", h.Runs)
}

// statusClientClosed is the nginx convention for a client that went away
// before the response was written.
const statusClientClosed = 499

// statusFor maps the forecast error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, forecast.ErrDataUnavailable):
		return http.StatusNotFound
	case errors.Is(err, forecast.ErrInsufficientHistory):
		return http.StatusBadRequest
	case errors.Is(err, forecast.ErrInvalidSeries):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return statusClientClosed
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) Predict(c echo.Context) error {
	ticker, ok := forecast.NormalizeTicker(c.Param("ticker"))
	if !ok {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid ticker"})
	}
	refresh, _ := strconv.ParseBool(c.QueryParam("refresh"))

	res, err := h.forecaster.Get(c.Request().Context(), ticker, refresh)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("ticker", ticker).Msg("predict failed")
		}
		return c.JSON(status, errorBody{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, res)
}

// Invalidate drops the cached forecast of a ticker.
func (h *Handler) Invalidate(c echo.Context) error {
	ticker, ok := forecast.NormalizeTicker(c.Param("ticker"))
	if !ok {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid ticker"})
	}
	if err := h.forecaster.Invalidate(c.Request().Context(), ticker); err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("invalidate failed")
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "cache unavailable"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Top10(c echo.Context) error {
	return c.JSON(http.StatusOK, h.watchlist)
}

type runView struct {
	Time         time.Time   `json:"time"`
	Status       string      `json:"status"`
	Error        string      `json:"error,omitempty"`
	LastPrice    model.Float `json:"last_price"`
	HorizonPrice model.Float `json:"horizon_price"`
	MSE          model.Float `json:"mse"`
	MAPE         model.Float `json:"mape"`
	FinalLoss    model.Float `json:"final_loss"`
	Epochs       int         `json:"epochs"`
	TrainSamples int         `json:"train_samples"`
	TestSamples  int         `json:"test_samples"`
	DurationMs   int64       `json:"duration_ms"`
}

func (h *Handler) Runs(c echo.Context) error {
	ticker, ok := forecast.NormalizeTicker(c.Param("ticker"))
	if !ok {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid ticker"})
	}
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			return c.JSON(http.StatusBadRequest, errorBody{Error: "limit must be between 1 and 500"})
		}
		limit = n
	}

	runs, err := h.recorder.RecentRuns(ticker, limit)
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("load runs failed")
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "run history unavailable"})
	}
	out := make([]runView, 0, len(runs))
	for _, r := range runs {
		out = append(out, runView{
			Time:         r.Time,
			Status:       r.Status,
			Error:        r.Error,
			LastPrice:    model.Float(r.LastPrice),
			HorizonPrice: model.Float(r.HorizonPrice),
			MSE:          model.Float(r.MSE),
			MAPE:         model.Float(r.MAPE),
			FinalLoss:    model.Float(r.FinalLoss),
			Epochs:       r.Epochs,
			TrainSamples: r.TrainSamples,
			TestSamples:  r.TestSamples,
			DurationMs:   r.Duration.Milliseconds(),
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
