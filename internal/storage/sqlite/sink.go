// Package sqlite provides a SQLite table sink. Handy for local runs and
// tests: use DSN ":memory:" or a file path.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"docdbtab/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg Config) (storage.TableSink, error) {
		return New(ctx, cfg)
	})
}

// Config holds SQLite settings.
type Config = storage.Config

// Sink writes tables to a SQLite database.
type Sink struct {
	db *sql.DB
}

// New opens the database and verifies connectivity.
func New(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqlite: missing dsn")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	return &Sink{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Sink) Close() {
	s.db.Close()
}

// EnsureTable creates the table if missing, all columns TEXT.
func (s *Sink) EnsureTable(ctx context.Context, table string, columns []string) error {
	_, err := s.db.ExecContext(ctx, buildCreateSQL(table, columns))
	return err
}

// SQLite limits bound parameters per statement (999 in older builds).
// Keep chunks safely under that.
const maxBindVars = 900

// InsertRows bulk-inserts rows in chunks sized to the bind-variable cap.
func (s *Sink) InsertRows(ctx context.Context, table string, columns []string, rows [][]string) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	chunk := maxBindVars / len(columns)
	if chunk < 1 {
		chunk = 1
	}

	var total int64
	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		args := make([]any, 0, len(batch)*len(columns))
		for _, row := range batch {
			for _, v := range row {
				args = append(args, v)
			}
		}

		res, err := s.db.ExecContext(ctx, buildInsertSQL(table, columns, len(batch)), args...)
		if err != nil {
			return total, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func buildCreateSQL(table string, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = sqlIdent(c) + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", sqlIdent(table), strings.Join(defs, ", "))
}

func buildInsertSQL(table string, columns []string, rowCount int) string {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = sqlIdent(c)
	}

	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	values := make([]string, rowCount)
	for i := range values {
		values[i] = row
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		sqlIdent(table), strings.Join(cols, ", "), strings.Join(values, ", "))
}

// sqlIdent quotes an identifier with double quotes, doubling any embedded
// quote. Table and column names come from mapping files, not user rows,
// but quote anyway.
func sqlIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
