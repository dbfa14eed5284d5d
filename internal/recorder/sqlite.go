package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"PriceOracle/internal/model"
)

// SQLiteRecorder persists request history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

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
		`CREATE TABLE IF NOT EXISTS forecast_requests (
			id             TEXT PRIMARY KEY,
			timestamp      INTEGER NOT NULL,
			chat_id        INTEGER,
			username       TEXT,
			message        TEXT,
			status         TEXT NOT NULL,
			app_id         INTEGER,
			item_name      TEXT,
			sales          INTEGER,
			days           INTEGER,
			last_price     REAL,
			sma7           REAL,
			low_30d        REAL,
			high_30d       REAL,
			failure_kind   TEXT,
			failure_reason TEXT,
			error          TEXT,
			duration_ms    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_ts ON forecast_requests(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_item ON forecast_requests(app_id, item_name)`,

		`CREATE TABLE IF NOT EXISTS forecast_points (
			request_id TEXT NOT NULL,
			step       INTEGER NOT NULL,
			day        TEXT NOT NULL,
			value      TEXT NOT NULL,
			PRIMARY KEY (request_id, step)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRequest(rec *RequestRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	summary := rec.Summary
	if summary == nil {
		summary = &model.HistorySummary{}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO forecast_requests
		(id, timestamp, chat_id, username, message, status,
		 app_id, item_name, sales, days, last_price, sma7, low_30d, high_30d,
		 failure_kind, failure_reason, error, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.RequestID, created.Unix(), rec.ChatID, rec.Username, rec.Message, rec.Status,
		rec.AppID, rec.ItemName, summary.Sales, summary.Days, summary.LastPrice,
		summary.SMA7, summary.Low30d, summary.High30d,
		rec.FailureKind, rec.FailureReason, rec.Error, rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}

	for i, p := range rec.Forecast {
		if _, err := tx.Exec(`INSERT INTO forecast_points (request_id, step, day, value) VALUES (?,?,?,?)`,
			rec.RequestID, i+1, p.Date.Format(time.DateOnly), p.Value,
		); err != nil {
			return fmt.Errorf("insert forecast point: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Prune(before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	cutoff := before.Unix()
	if _, err := tx.Exec(`DELETE FROM forecast_points WHERE request_id IN
		(SELECT id FROM forecast_requests WHERE timestamp < ?)`, cutoff); err != nil {
		return 0, fmt.Errorf("prune forecast points: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM forecast_requests WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
