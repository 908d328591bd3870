// Package mssql provides a SQL Server table sink.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"docdbtab/internal/storage"
)

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.TableSink, error) {
		return New(ctx, cfg)
	})
}

// Sink writes tables to SQL Server.
type Sink struct {
	db *sql.DB
}

// New connects to the server using a sqlserver:// URL or ADO DSN.
func New(ctx context.Context, cfg storage.Config) (*Sink, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mssql: missing dsn")
	}

	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mssql ping: %w", err)
	}

	return &Sink{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Sink) Close() {
	s.db.Close()
}

// EnsureTable creates the table if missing, all columns NVARCHAR(MAX).
func (s *Sink) EnsureTable(ctx context.Context, table string, columns []string) error {
	_, err := s.db.ExecContext(ctx, buildCreateSQL(table, columns))
	return err
}

// SQL Server caps bound parameters per statement at 2100.
const maxBindVars = 2000

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
		defs[i] = sqlIdent(c) + " NVARCHAR(MAX)"
	}
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s)",
		strings.ReplaceAll(table, "'", "''"), sqlIdent(table), strings.Join(defs, ", "))
}

func buildInsertSQL(table string, columns []string, rowCount int) string {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = sqlIdent(c)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", sqlIdent(table), strings.Join(cols, ", "))

	arg := 1
	for r := 0; r < rowCount; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := range columns {
			if c > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "@p%d", arg)
			arg++
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// sqlIdent brackets an identifier, doubling any closing bracket.
func sqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
