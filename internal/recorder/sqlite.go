package recorder

import (
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"MoveSentinel/internal/model"
)

// SQLiteRecorder persists movements and reports to a SQLite database.
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

	// WAL lets dashboards read while the detector writes.
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
		`CREATE TABLE IF NOT EXISTS movements (
			id          TEXT PRIMARY KEY,
			start_time  INTEGER NOT NULL,
			end_time    INTEGER NOT NULL,
			candles     INTEGER NOT NULL,
			open_price  REAL,
			close_price REAL,
			percent     REAL,
			message     TEXT,
			detected_at INTEGER NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_movements_start ON movements(start_time)`,

		`CREATE TABLE IF NOT EXISTS daily_reports (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp           INTEGER NOT NULL,
			target_symbol       TEXT,
			reference_symbol    TEXT,
			candles             INTEGER,
			correlation         REAL,
			segments            INTEGER,
			independent_candles INTEGER,
			max_abs_percent     REAL,
			mean_abs_percent    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_reports_ts ON daily_reports(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordMovement stores a movement; a movement with an already stored start time is ignored.
func (r *SQLiteRecorder) RecordMovement(evt *model.MovementEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	first, last := evt.Segment.First(), evt.Segment.Last()
	_, err := r.db.Exec(`INSERT OR IGNORE INTO movements
		(id, start_time, end_time, candles, open_price, close_price, percent, message, detected_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		evt.ID, first.Time, last.Time, evt.Segment.Len(), first.Open, last.Close,
		evt.Percent, evt.Message, evt.DetectedAt.Unix(),
	)
	return err
}

func (r *SQLiteRecorder) RecordDailyReport(rep *model.DailyReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	corr := sql.NullFloat64{Float64: rep.Correlation, Valid: !math.IsNaN(rep.Correlation)}
	_, err := r.db.Exec(`INSERT INTO daily_reports
		(timestamp, target_symbol, reference_symbol, candles, correlation,
		 segments, independent_candles, max_abs_percent, mean_abs_percent)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		rep.GeneratedAt.Unix(), rep.TargetSymbol, rep.ReferenceSymbol, rep.Candles, corr,
		rep.Segments, rep.IndependentCandles, rep.MaxAbsPercent, rep.MeanAbsPercent,
	)
	return err
}

// RecentMovements returns up to limit stored movements, newest first.
func (r *SQLiteRecorder) RecentMovements(limit int) ([]MovementRecord, error) {
	rows, err := r.db.Query(`SELECT id, start_time, end_time, candles, percent, message, detected_at
		FROM movements ORDER BY start_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	var out []MovementRecord
	for rows.Next() {
		var rec MovementRecord
		var detected int64
		if err := rows.Scan(&rec.ID, &rec.StartTime, &rec.EndTime, &rec.Candles, &rec.Percent, &rec.Message, &detected); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		rec.DetectedAt = time.Unix(detected, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
