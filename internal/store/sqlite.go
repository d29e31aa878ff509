package store

import (
	"database/sql"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/geongi-im/bithumb-price-monitor/internal/model"
)

// symbolPattern allow-lists ticker symbols before they are folded into a
// table identifier. Anything else is rejected to keep identifier
// construction injection-free.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// SQLiteStore persists per-symbol daily price series to a local SQLite
// file. One table per symbol, at most one row per calendar day.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the SQLite database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func tableName(symbol string) (string, error) {
	if !symbolPattern.MatchString(symbol) {
		return "", fmt.Errorf("invalid symbol %q", symbol)
	}
	return "bp_price_" + strings.ToLower(symbol), nil
}

// EnsureTable creates the symbol's table and date index if absent.
func (s *SQLiteStore) EnsureTable(symbol string) error {
	table, err := tableName(symbol)
	if err != nil {
		return err
	}
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			idx         INTEGER PRIMARY KEY AUTOINCREMENT,
			open_price  REAL NOT NULL,
			close_price REAL NOT NULL,
			high_price  REAL NOT NULL,
			low_price   REAL NOT NULL,
			volume      REAL NOT NULL,
			reg_date    TEXT NOT NULL,
			UNIQUE(reg_date)
		)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_reg_date ON %s(reg_date DESC)`,
			strings.ToLower(symbol), table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	return nil
}

// TableExists reports whether the symbol's table has been created.
func (s *SQLiteStore) TableExists(symbol string) (bool, error) {
	table, err := tableName(symbol)
	if err != nil {
		return false, err
	}
	var name string
	err = s.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return true, nil
}

// SeedBulk inserts a full history in one transaction. The caller passes
// candles oldest first and already deduplicated by date; a UNIQUE
// violation rolls the whole seed back.
func (s *SQLiteStore) SeedBulk(symbol string, candles []model.Candle) error {
	table, err := tableName(symbol)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf(
		`INSERT INTO %s (open_price, close_price, high_price, low_price, volume, reg_date)
		 VALUES (?,?,?,?,?,?)`, table))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare seed insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.Exec(c.Open, c.Close, c.High, c.Low, c.Volume, c.DateKey()); err != nil {
			tx.Rollback()
			return fmt.Errorf("seed %s %s: %w", symbol, c.DateKey(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

// Observation returns the stored row for one date key.
func (s *SQLiteStore) Observation(symbol, date string) (model.Candle, bool, error) {
	table, err := tableName(symbol)
	if err != nil {
		return model.Candle{}, false, err
	}
	var c model.Candle
	var regDate string
	err = s.db.QueryRow(fmt.Sprintf(
		`SELECT open_price, close_price, high_price, low_price, volume, reg_date
		 FROM %s WHERE reg_date = ?`, table), date,
	).Scan(&c.Open, &c.Close, &c.High, &c.Low, &c.Volume, &regDate)
	if err == sql.ErrNoRows {
		return model.Candle{}, false, nil
	}
	if err != nil {
		return model.Candle{}, false, fmt.Errorf("read %s %s: %w", symbol, date, err)
	}
	c.Date, err = time.Parse(model.DateLayout, regDate)
	if err != nil {
		return model.Candle{}, false, fmt.Errorf("parse reg_date %q: %w", regDate, err)
	}
	return c, true, nil
}

// UpsertDay is the idempotent-recovery primitive: insert the row for date,
// or refresh close/high/low/volume when it already exists. The open price
// is fixed at first insert.
func (s *SQLiteStore) UpsertDay(symbol string, candle model.Candle, date string) error {
	table, err := tableName(symbol)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(fmt.Sprintf(
		`INSERT INTO %s (open_price, close_price, high_price, low_price, volume, reg_date)
		 VALUES (?,?,?,?,?,?)
		 ON CONFLICT(reg_date) DO UPDATE SET
			close_price = excluded.close_price,
			high_price  = excluded.high_price,
			low_price   = excluded.low_price,
			volume      = excluded.volume`, table),
		candle.Open, candle.Close, candle.High, candle.Low, candle.Volume, date)
	if err != nil {
		return fmt.Errorf("upsert %s %s: %w", symbol, date, err)
	}
	return nil
}

// WindowExtremum scans rows dated within the trailing window (today's row
// included) and returns max(high) or min(low). ok is false when no rows
// qualify.
func (s *SQLiteStore) WindowExtremum(symbol string, days int, kind ExtremumKind) (float64, bool, error) {
	table, err := tableName(symbol)
	if err != nil {
		return 0, false, err
	}
	agg := "MAX(high_price)"
	if kind == ExtremumLow {
		agg = "MIN(low_price)"
	}
	cutoff := s.now().AddDate(0, 0, -days).Format(model.DateLayout)

	var value sql.NullFloat64
	err = s.db.QueryRow(fmt.Sprintf(
		`SELECT %s FROM %s WHERE reg_date >= ?`, agg, table), cutoff,
	).Scan(&value)
	if err != nil {
		return 0, false, fmt.Errorf("window extremum %s %dd: %w", symbol, days, err)
	}
	if !value.Valid {
		return 0, false, nil
	}
	return value.Float64, true, nil
}

// FullSeries returns all rows within the trailing window, oldest first.
func (s *SQLiteStore) FullSeries(symbol string, days int) ([]model.Candle, error) {
	table, err := tableName(symbol)
	if err != nil {
		return nil, err
	}
	cutoff := s.now().AddDate(0, 0, -days).Format(model.DateLayout)

	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT open_price, close_price, high_price, low_price, volume, reg_date
		 FROM %s WHERE reg_date >= ? ORDER BY reg_date ASC`, table), cutoff)
	if err != nil {
		return nil, fmt.Errorf("full series %s: %w", symbol, err)
	}
	defer rows.Close()

	var series []model.Candle
	for rows.Next() {
		var c model.Candle
		var regDate string
		if err := rows.Scan(&c.Open, &c.Close, &c.High, &c.Low, &c.Volume, &regDate); err != nil {
			return nil, fmt.Errorf("scan series row: %w", err)
		}
		if c.Date, err = time.Parse(model.DateLayout, regDate); err != nil {
			return nil, fmt.Errorf("parse reg_date %q: %w", regDate, err)
		}
		series = append(series, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series: %w", err)
	}
	return series, nil
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}
