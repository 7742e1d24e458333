package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/phuslu/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	logger log.Logger
	mu     sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger log.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			subject   TEXT,
			tickers   INTEGER,
			advancers INTEGER,
			decliners INTEGER,
			sent      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS ticker_metrics (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    INTEGER NOT NULL REFERENCES runs(id),
			symbol    TEXT NOT NULL,
			source    TEXT,
			bars      INTEGER,
			price     REAL,
			pct_1d    REAL,
			pct_1w    REAL,
			pct_1m    REAL,
			pct_ytd   REAL,
			low_52w   REAL,
			high_52w  REAL,
			range_pct REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_run ON ticker_metrics(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_symbol ON ticker_metrics(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun writes the run row and its per-ticker metrics in one
// transaction.
func (r *SQLiteRecorder) RecordRun(run *RunRecord, rows []TickerRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO runs
		(timestamp, subject, tickers, advancers, decliners, sent)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), run.Subject, run.Tickers,
		run.Advancers, run.Decliners, boolToInt(run.Sent),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	for _, row := range rows {
		m := row.Metrics
		_, err := tx.Exec(`INSERT INTO ticker_metrics
			(run_id, symbol, source, bars, price,
			 pct_1d, pct_1w, pct_1m, pct_ytd,
			 low_52w, high_52w, range_pct)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
			runID, m.Symbol, row.Source, m.Bars, m.Price,
			nullable(m.Pct1D), nullable(m.Pct1W), nullable(m.Pct1M), nullable(m.PctYTD),
			m.Low52w, m.High52w, m.RangePct,
		)
		if err != nil {
			return fmt.Errorf("insert metrics %s: %w", m.Symbol, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Debug().Msg("closing sqlite recorder")
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullable maps an absent percentage to SQL NULL.
func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
