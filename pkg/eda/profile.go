// Package eda answers the exploratory questions about a trips table by
// loading it into an in-memory SQLite database and querying it.
package eda

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/wwdelhi/congestion/pkg/dataset"
	"github.com/wwdelhi/congestion/pkg/models"
)

// Kind is the inferred storage type of a column
type Kind string

const (
	KindNumeric Kind = "float64"
	KindText    Kind = "object"
)

// ColumnStats describes one column of the table
type ColumnStats struct {
	Name    string `json:"name"`
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Kind    Kind   `json:"kind"`
}

// ValueCount is the frequency of one value of a column
type ValueCount struct {
	Value string `db:"value" json:"value"`
	Count int    `db:"count" json:"count"`
}

// Profile holds the diagnostics of a trips table. It keeps the database open
// for further queries until Close.
type Profile struct {
	Rows          int           `json:"rows"`
	Columns       int           `json:"columns"`
	ColumnStats   []ColumnStats `json:"column_stats"`
	InvalidSpeeds int           `json:"invalid_speeds"` // average speed <= 0
	MinDistance   float64       `json:"min_distance"`   // NaN when no distance is present
	MaxDistance   float64       `json:"max_distance"`

	db     *sqlx.DB
	header []string
}

// NewProfile loads ds into a fresh in-memory database and computes the
// diagnostics.
func NewProfile(ctx context.Context, ds *dataset.Dataset) (*Profile, error) {
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to :memory: is its own database
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	p := &Profile{db: db, header: append([]string(nil), ds.Header...)}
	if err := p.load(ctx, ds); err != nil {
		db.Close()
		return nil, err
	}
	if err := p.compute(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// Close releases the database
func (p *Profile) Close() error {
	return p.db.Close()
}

// load creates the trips table without declared column types so every cell
// keeps the type it was inserted with: REAL for numbers, TEXT otherwise and
// NULL when empty.
func (p *Profile) load(ctx context.Context, ds *dataset.Dataset) error {
	cols := make([]string, len(p.header))
	marks := make([]string, len(p.header))
	for i, name := range p.header {
		cols[i] = quote(name)
		marks[i] = "?"
	}

	create := fmt.Sprintf("CREATE TABLE trips (%s)", strings.Join(cols, ", "))
	if _, err := p.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf("INSERT INTO trips VALUES (%s)", strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(p.header))
	for r, row := range ds.Rows {
		for j := range p.header {
			args[j] = cellValue(row, j)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", r+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rows: %w", err)
	}
	return nil
}

func cellValue(row []string, j int) interface{} {
	if j >= len(row) || row[j] == "" {
		return nil
	}
	// NaN and Inf spellings stay text; SQLite would store NaN as NULL
	if v, err := strconv.ParseFloat(row[j], 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	return row[j]
}

func (p *Profile) compute(ctx context.Context) error {
	if err := p.db.GetContext(ctx, &p.Rows, "SELECT COUNT(*) FROM trips"); err != nil {
		return fmt.Errorf("failed to count rows: %w", err)
	}
	p.Columns = len(p.header)

	for _, name := range p.header {
		stats := ColumnStats{Name: name, Kind: KindNumeric}
		if err := p.db.GetContext(ctx, &stats.NonNull, fmt.Sprintf("SELECT COUNT(%s) FROM trips", quote(name))); err != nil {
			return fmt.Errorf("failed to count %s: %w", name, err)
		}
		stats.Missing = p.Rows - stats.NonNull

		var text int
		query := fmt.Sprintf("SELECT COUNT(*) FROM trips WHERE typeof(%s) = 'text'", quote(name))
		if err := p.db.GetContext(ctx, &text, query); err != nil {
			return fmt.Errorf("failed to type %s: %w", name, err)
		}
		if text > 0 || stats.NonNull == 0 {
			stats.Kind = KindText
		}
		p.ColumnStats = append(p.ColumnStats, stats)
	}

	speed := quote(models.ColumnSpeed)
	query := fmt.Sprintf("SELECT COUNT(*) FROM trips WHERE typeof(%s) = 'real' AND %s <= 0", speed, speed)
	if err := p.db.GetContext(ctx, &p.InvalidSpeeds, query); err != nil {
		return fmt.Errorf("failed to count invalid speeds: %w", err)
	}

	var bounds struct {
		Min sql.NullFloat64 `db:"min_distance"`
		Max sql.NullFloat64 `db:"max_distance"`
	}
	distance := quote(models.ColumnDistance)
	query = fmt.Sprintf("SELECT MIN(%s) AS min_distance, MAX(%s) AS max_distance FROM trips WHERE typeof(%s) = 'real'", distance, distance, distance)
	if err := p.db.GetContext(ctx, &bounds, query); err != nil {
		return fmt.Errorf("failed to read distance range: %w", err)
	}
	p.MinDistance, p.MaxDistance = math.NaN(), math.NaN()
	if bounds.Min.Valid {
		p.MinDistance = bounds.Min.Float64
	}
	if bounds.Max.Valid {
		p.MaxDistance = bounds.Max.Float64
	}
	return nil
}

// ValueCounts returns the non-missing values of column, most frequent
// first, ties by value.
func (p *Profile) ValueCounts(ctx context.Context, column string) ([]ValueCount, error) {
	if !p.hasColumn(column) {
		return nil, fmt.Errorf("unknown column '%s'", column)
	}
	var counts []ValueCount
	query := fmt.Sprintf(
		"SELECT CAST(%[1]s AS TEXT) AS value, COUNT(*) AS count FROM trips WHERE %[1]s IS NOT NULL GROUP BY %[1]s ORDER BY count DESC, value",
		quote(column))
	if err := p.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to count values of %s: %w", column, err)
	}
	return counts, nil
}

// Head returns the first n rows in file order, missing cells as "NaN"
func (p *Profile) Head(ctx context.Context, n int) ([][]string, error) {
	rows, err := p.db.QueryxContext(ctx, "SELECT * FROM trips ORDER BY rowid LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("failed to read head: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatCell(v)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (p *Profile) hasColumn(column string) bool {
	for _, name := range p.header {
		if name == column {
			return true
		}
	}
	return false
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "NaN"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
