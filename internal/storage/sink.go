// Package storage loads extracted tables into a relational database.
// Backends register themselves by kind; the converter core never imports
// a driver.
package storage

import (
	"context"
	"fmt"
	"sync"

	"docdbtab/internal/tabular"
)

// Config selects and configures a backend.
type Config struct {
	Kind string
	DSN  string
}

// TableSink receives extracted tables. All columns are TEXT: extracted
// values are untyped strings by contract, and natural-key uniqueness is
// not enforced (the engine does not guarantee it).
type TableSink interface {
	// Close releases backend resources. Call once at shutdown.
	Close()

	// EnsureTable creates the table if it does not exist, with one TEXT
	// column per name. Idempotent.
	EnsureTable(ctx context.Context, table string, columns []string) error

	// InsertRows bulk-inserts rows aligned to columns and returns the
	// number of affected rows.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]string) (int64, error)
}

type factory func(ctx context.Context, cfg Config) (TableSink, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
// Call from an init function in the backend package. Registering the
// same kind twice panics to fail fast on ambiguous selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a TableSink using the registered backend factory.
func New(ctx context.Context, cfg Config) (TableSink, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// LoadTables pushes every populated table through the sink: ensure the
// table, then insert its records aligned to the resolved column order.
// Columns absent from a record insert as empty strings, matching the CSV
// serialization.
func LoadTables(ctx context.Context, sink TableSink, tables *tabular.TableSet, fieldnames map[string][]string) error {
	for _, name := range tables.Names() {
		cols := fieldnames[name]
		if len(cols) == 0 {
			return fmt.Errorf("table %q has records but no resolved columns", name)
		}

		if err := sink.EnsureTable(ctx, name, cols); err != nil {
			return fmt.Errorf("ensure table %s: %w", name, err)
		}

		recs := tables.Records(name)
		rows := make([][]string, len(recs))
		for i, rec := range recs {
			row := make([]string, len(cols))
			for j, c := range cols {
				row[j] = rec[c]
			}
			rows[i] = row
		}

		if _, err := sink.InsertRows(ctx, name, cols, rows); err != nil {
			return fmt.Errorf("insert into %s: %w", name, err)
		}
	}
	return nil
}
