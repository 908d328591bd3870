// Package output serializes extracted tables to delimited files.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"docdbtab/internal/tabular"
)

// WriteCSVDir writes one <table>.csv per populated table under dir. The
// resolved column list is the header; records follow in insertion order,
// and columns absent from a record are serialized as empty fields.
func WriteCSVDir(dir string, tables *tabular.TableSet, fieldnames map[string][]string) error {
	for _, name := range tables.Names() {
		cols := fieldnames[name]
		if len(cols) == 0 {
			return fmt.Errorf("table %q has records but no resolved columns", name)
		}
		path := filepath.Join(dir, name+".csv")
		if err := writeCSVFile(path, cols, tables.Records(name)); err != nil {
			return fmt.Errorf("table %s: %w", name, err)
		}
	}
	return nil
}

func writeCSVFile(path string, cols []string, recs []tabular.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(cols))
	for _, rec := range recs {
		for i, c := range cols {
			row[i] = rec[c]
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
