package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fridge_monitor"
	"fridge_monitor/internal/models"
)

type RecordSQLite struct {
	db *sql.DB
}

func NewRecordSQLite(db *sql.DB) *RecordSQLite { return &RecordSQLite{db: db} }

// Ensure implementation of RecordRepo interface at compile time.
var _ RecordRepo = (*RecordSQLite)(nil)

const (
	insertReadingSQL = `INSERT INTO fridge_readings (fridge_id, instrument_name, parameter_name, applied_value, ts) VALUES (?, ?, ?, ?, ?)`
	selectReadingSQL = `SELECT fridge_id, instrument_name, parameter_name, applied_value, ts FROM fridge_readings`
	countReadingSQL  = `SELECT COUNT(*) FROM fridge_readings`
	overallStatsSQL  = `SELECT COUNT(*), AVG(applied_value), MIN(applied_value), MAX(applied_value) FROM fridge_readings`
)

// groupStatsSQL aggregates by one column; col is always one of the constants
// below, never user input.
func groupStatsSQL(col string) string {
	return fmt.Sprintf(
		`SELECT CAST(%[1]s AS TEXT), COUNT(*), AVG(applied_value), MIN(applied_value), MAX(applied_value) FROM fridge_readings GROUP BY %[1]s ORDER BY %[1]s`,
		col,
	)
}

const (
	colFridgeID   = "fridge_id"
	colInstrument = "instrument_name"
	colParameter  = "parameter_name"
)

// Insert stores one reading.
func (r *RecordSQLite) Insert(ctx context.Context, rec fridge_monitor.Record) error {
	_, err := r.db.ExecContext(ctx, insertReadingSQL,
		rec.FridgeID,
		strings.TrimSpace(rec.InstrumentName),
		strings.TrimSpace(rec.ParameterName),
		rec.AppliedValue,
		rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert reading for fridge %d: %w", rec.FridgeID, err)
	}
	return nil
}

// List returns one page of readings matching q, newest first, and the number
// of matching readings across all pages.
func (r *RecordSQLite) List(ctx context.Context, q models.RecordQuery) ([]fridge_monitor.Record, int, error) {
	q = q.Normalize()
	where, args := whereClause(q)

	var total int
	if err := r.db.QueryRowContext(ctx, countReadingSQL+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count readings: %w", err)
	}

	query := selectReadingSQL + where + " ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("select readings: %w", err)
	}
	defer rows.Close()

	out := make([]fridge_monitor.Record, 0, q.Limit)
	for rows.Next() {
		var rec fridge_monitor.Record
		if err := rows.Scan(&rec.FridgeID, &rec.InstrumentName, &rec.ParameterName, &rec.AppliedValue, &rec.Timestamp); err != nil {
			return nil, 0, fmt.Errorf("scan reading: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate readings: %w", err)
	}
	return out, total, nil
}

// whereClause matches filter values verbatim, surrounding whitespace
// included, the same way the dashboard re-applies them to the rows it shows.
func whereClause(q models.RecordQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if v := q.FridgeID; v != "" {
		conds = append(conds, `CAST(fridge_id AS TEXT) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(v))
	}
	if v := q.InstrumentName; v != "" {
		conds = append(conds, `instrument_name LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(v))
	}
	if v := q.ParameterName; v != "" {
		conds = append(conds, `parameter_name LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(v))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a contains-match LIKE pattern with wildcards in s escaped.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Stats aggregates every stored reading overall and per fridge, instrument
// and parameter.
func (r *RecordSQLite) Stats(ctx context.Context) (fridge_monitor.Analytics, error) {
	var (
		out         fridge_monitor.Analytics
		avg, lo, hi sql.NullFloat64
	)
	if err := r.db.QueryRowContext(ctx, overallStatsSQL).Scan(&out.Overall.TotalRecords, &avg, &lo, &hi); err != nil {
		return fridge_monitor.Analytics{}, fmt.Errorf("overall stats: %w", err)
	}
	out.Overall.AvgValue = avg.Float64
	out.Overall.MinValue = lo.Float64
	out.Overall.MaxValue = hi.Float64

	var err error
	if out.ByFridge, err = r.groupStats(ctx, colFridgeID); err != nil {
		return fridge_monitor.Analytics{}, err
	}
	if out.ByInstrument, err = r.groupStats(ctx, colInstrument); err != nil {
		return fridge_monitor.Analytics{}, err
	}
	if out.ByParameter, err = r.groupStats(ctx, colParameter); err != nil {
		return fridge_monitor.Analytics{}, err
	}
	return out, nil
}

func (r *RecordSQLite) groupStats(ctx context.Context, col string) (map[string]fridge_monitor.GroupStats, error) {
	rows, err := r.db.QueryContext(ctx, groupStatsSQL(col))
	if err != nil {
		return nil, fmt.Errorf("stats by %s: %w", col, err)
	}
	defer rows.Close()

	out := make(map[string]fridge_monitor.GroupStats)
	for rows.Next() {
		var (
			key string
			gs  fridge_monitor.GroupStats
		)
		if err := rows.Scan(&key, &gs.Count, &gs.AvgValue, &gs.MinValue, &gs.MaxValue); err != nil {
			return nil, fmt.Errorf("scan stats by %s: %w", col, err)
		}
		out[key] = gs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats by %s: %w", col, err)
	}
	return out, nil
}
