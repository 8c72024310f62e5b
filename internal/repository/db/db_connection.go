package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// InitDB opens/creates a SQLite DB file, ensures tables exist and seeds an
// empty readings table.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

const schemaReadings = `
CREATE TABLE IF NOT EXISTS fridge_readings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    fridge_id INTEGER NOT NULL,
    instrument_name TEXT NOT NULL,
    parameter_name TEXT NOT NULL,
    applied_value REAL NOT NULL,
    ts INTEGER NOT NULL
);
`

const indexReadingsTS = `
CREATE INDEX IF NOT EXISTS idx_fridge_readings_ts ON fridge_readings (ts DESC, id DESC);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range []string{schemaReadings, indexReadingsTS} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

type seedRow struct {
	fridgeID   int
	instrument string
	parameter  string
	value      float64
	ts         int64
}

// seedRows are the readings a fresh database starts with (timestamps in
// epoch millis).
var seedRows = []seedRow{
	{1, "instrument_one", "flux_bias", 0.37, 1739596596000},
	{2, "instrument_two", "temperature", -0.12, 1739597890000},
	{3, "instrument_three", "power_level", 1.25, 1739601234000},
	{1, "instrument_four", "current_bias", 0.89, 1739612345000},
	{2, "instrument_five", "voltage", 0.02, 1739623456000},
}

func seedIfEmpty(db *sql.DB) error {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM fridge_readings`).Scan(&n); err != nil {
		return fmt.Errorf("count readings: %w", err)
	}
	if n > 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range seedRows {
		if _, err := tx.Exec(
			`INSERT INTO fridge_readings (fridge_id, instrument_name, parameter_name, applied_value, ts) VALUES (?, ?, ?, ?, ?)`,
			r.fridgeID, r.instrument, r.parameter, r.value, r.ts,
		); err != nil {
			return fmt.Errorf("seed reading: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	return nil
}
