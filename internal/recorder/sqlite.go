package recorder

import (
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the service writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			ticker        TEXT NOT NULL,
			status        TEXT NOT NULL,
			error         TEXT,
			last_price    REAL,
			horizon_price REAL,
			mse           REAL,
			mape          REAL,
			final_loss    REAL,
			epochs        INTEGER,
			train_samples INTEGER,
			test_samples  INTEGER,
			duration_ms   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ticker_ts ON forecast_runs(ticker, timestamp)`,

		`CREATE TABLE IF NOT EXISTS refresh_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			started     INTEGER NOT NULL,
			finished    INTEGER NOT NULL,
			tickers     INTEGER,
			succeeded   INTEGER,
			failed      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_ts ON refresh_runs(started)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps NaN and Inf to SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func (r *SQLiteRecorder) RecordForecast(run *ForecastRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := run.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO forecast_runs
		(timestamp, ticker, status, error, last_price, horizon_price,
		 mse, mape, final_loss, epochs, train_samples, test_samples, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ts.Unix(), run.Ticker, run.Status, run.Error,
		nullable(run.LastPrice), nullable(run.HorizonPrice),
		nullable(run.MSE), nullable(run.MAPE), nullable(run.FinalLoss),
		run.Epochs, run.TrainSamples, run.TestSamples, run.Duration.Milliseconds(),
	)
	return err
}

func (r *SQLiteRecorder) RecordRefresh(run *RefreshRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO refresh_runs
		(started, finished, tickers, succeeded, failed)
		VALUES (?,?,?,?,?)`,
		run.Started.Unix(), run.Finished.Unix(), run.Tickers, run.Succeeded, run.Failed,
	)
	return err
}

// RecentRuns returns up to limit runs for ticker, newest first.
func (r *SQLiteRecorder) RecentRuns(ticker string, limit int) ([]ForecastRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, ticker, status, error,
		last_price, horizon_price, mse, mape, final_loss,
		epochs, train_samples, test_samples, duration_ms
		FROM forecast_runs WHERE ticker = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []ForecastRun
	for rows.Next() {
		var (
			run                      ForecastRun
			ts, durMs                int64
			errText                  sql.NullString
			last, horizon, mse, mape sql.NullFloat64
			loss                     sql.NullFloat64
		)
		if err := rows.Scan(&ts, &run.Ticker, &run.Status, &errText,
			&last, &horizon, &mse, &mape, &loss,
			&run.Epochs, &run.TrainSamples, &run.TestSamples, &durMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Time = time.Unix(ts, 0)
		run.Error = errText.String
		run.LastPrice = orNaN(last)
		run.HorizonPrice = orNaN(horizon)
		run.MSE = orNaN(mse)
		run.MAPE = orNaN(mape)
		run.FinalLoss = orNaN(loss)
		run.Duration = time.Duration(durMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
