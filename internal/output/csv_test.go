package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"docdbtab/internal/mapping"
	"docdbtab/internal/tabular"
)

// convert runs a mapping over one document and returns the populated
// tables plus their resolved columns.
func convert(t *testing.T, mappingSrc, doc string) (*tabular.TableSet, map[string][]string) {
	t.Helper()

	m, err := mapping.Parse(strings.NewReader(mappingSrc))
	if err != nil {
		t.Fatalf("parse mapping: %v", err)
	}

	conv := tabular.NewConverter(m, zap.NewNop())
	if err := conv.ProcessDoc([]byte(doc)); err != nil {
		t.Fatalf("process doc: %v", err)
	}
	return conv.Tables, tabular.Fieldnames(m)
}

// TestWriteCSVDir verifies one CSV per table: header row from the
// resolved column order, then records in insertion order, with columns
// a record never set serialized as empty fields.
func TestWriteCSVDir(t *testing.T) {
	t.Parallel()

	tables, fieldnames := convert(t, `{
		"SDOBI": {
			"entity": "documents",
			"pk": "DNUM",
			"fields": {
				"T": "title",
				"MISSING": "subtitle",
				"CLM": {"entity": "claims", "fields": {"P": "text"}}
			}
		}
	}`, `<PATDOC><SDOBI>
		<DNUM>7</DNUM><T>Widget</T>
		<CLM><P>one</P></CLM>
	</SDOBI></PATDOC>`)

	dir := t.TempDir()
	if err := WriteCSVDir(dir, tables, fieldnames); err != nil {
		t.Fatalf("WriteCSVDir: %v", err)
	}

	docs, err := os.ReadFile(filepath.Join(dir, "documents.csv"))
	if err != nil {
		t.Fatalf("read documents.csv: %v", err)
	}
	want := "id,title,subtitle\n7,Widget,\n"
	if string(docs) != want {
		t.Fatalf("expected %q, got %q", want, docs)
	}

	claims, err := os.ReadFile(filepath.Join(dir, "claims.csv"))
	if err != nil {
		t.Fatalf("read claims.csv: %v", err)
	}
	if string(claims) != "id,documents_id,text\n0,7,one\n" {
		t.Fatalf("unexpected claims.csv: %q", claims)
	}
}

// TestWriteCSVDir_Quoting verifies values containing delimiters and
// quotes round-trip through standard CSV quoting.
func TestWriteCSVDir_Quoting(t *testing.T) {
	t.Parallel()

	tables, fieldnames := convert(t, `{
		"SDOBI": {"entity": "documents", "fields": {"T": "title"}}
	}`, `<PATDOC><SDOBI><T>a,b "c"</T></SDOBI></PATDOC>`)

	dir := t.TempDir()
	if err := WriteCSVDir(dir, tables, fieldnames); err != nil {
		t.Fatalf("WriteCSVDir: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "documents.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(got), `"a,b ""c"""`) {
		t.Fatalf("expected quoted field, got %q", got)
	}
}

// TestWriteCSVDir_MissingColumns verifies a populated table without a
// resolved column list is an error, not a headerless file.
func TestWriteCSVDir_MissingColumns(t *testing.T) {
	t.Parallel()

	tables, _ := convert(t, `{
		"SDOBI": {"entity": "documents", "fields": {"T": "title"}}
	}`, `<PATDOC><SDOBI><T>x</T></SDOBI></PATDOC>`)

	if err := WriteCSVDir(t.TempDir(), tables, map[string][]string{}); err == nil {
		t.Fatal("expected error for missing column list")
	}
}
