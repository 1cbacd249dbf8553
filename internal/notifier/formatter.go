package notifier

import (
	"fmt"
	"math"
	"strings"
	"time"

	"MarketForecast/internal/model"
	"MarketForecast/internal/recorder"
)

// DigestFailure is a ticker whose scheduled refresh failed.
type DigestFailure struct {
	Ticker string
	Kind   string
}

func pct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v)
}

func change(from, to float64) string {
	if from == 0 || math.IsNaN(from) || math.IsNaN(to) {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", (to-from)/from*100)
}

// FormatForecast formats a single forecast result into a Telegram message.
func FormatForecast(res *model.ForecastResult) string {
	var b strings.Builder
	last, horizon := res.LastPrice(), res.HorizonPrice()

	b.WriteString(fmt.Sprintf("📈 <b>%s</b> | %s\n\n", res.Ticker, res.LastUpdated.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Last price: %.2f\n", last))
	b.WriteString(fmt.Sprintf("Forecast (%d days): %.2f (%s)\n", len(res.Forecast), horizon, change(last, horizon)))
	if n := len(res.Forecast); n > 0 && len(res.Dates) >= n {
		b.WriteString(fmt.Sprintf("Horizon end: %s\n", res.Dates[len(res.Dates)-1]))
	}
	b.WriteString(fmt.Sprintf("\nBacktest MAPE: %s | MSE: %.4f\n", pct(float64(res.Metrics.MAPE)), float64(res.Metrics.MSE)))
	return b.String()
}

// FormatDigest summarises a scheduled refresh of the watchlist.
func FormatDigest(results []*model.ForecastResult, failures []DigestFailure, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Forecast digest</b> | %s\n\n", at.Format("2006-01-02")))

	for _, res := range results {
		last, horizon := res.LastPrice(), res.HorizonPrice()
		b.WriteString(fmt.Sprintf("%-6s %9.2f → %9.2f (%s) MAPE %s\n",
			res.Ticker, last, horizon, change(last, horizon), pct(float64(res.Metrics.MAPE))))
	}
	if len(failures) > 0 {
		b.WriteString("\n⚠️ <b>Failed:</b>\n")
		for _, f := range failures {
			b.WriteString(fmt.Sprintf("  %s (%s)\n", f.Ticker, f.Kind))
		}
	}
	b.WriteString(fmt.Sprintf("\n%d ok, %d failed\n", len(results), len(failures)))
	return b.String()
}

// FormatRuns formats recent run history for one ticker.
func FormatRuns(ticker string, runs []recorder.ForecastRun) string {
	if len(runs) == 0 {
		return fmt.Sprintf("No runs recorded for %s", ticker)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>%s recent runs</b>\n\n", ticker))
	for _, r := range runs {
		if r.Status != "ok" {
			b.WriteString(fmt.Sprintf("%s  %s\n", r.Time.Format("01-02 15:04"), r.Status))
			continue
		}
		b.WriteString(fmt.Sprintf("%s  %.2f → %.2f  MAPE %s  %s\n",
			r.Time.Format("01-02 15:04"), r.LastPrice, r.HorizonPrice, pct(r.MAPE), r.Duration.Round(time.Millisecond)))
	}
	return b.String()
}
