package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

const testMapping = `{
	"SDOBI": {
		"entity": "documents",
		"pk": "B110/DNUM",
		"fields": {
			"B540/STEXT": "title",
			"B510/IC": "|classes",
			"CL/CLM": {
				"entity": "claims",
				"fields": {"PTEXT": "text"}
			}
		}
	}
}`

const testDocs = `<?xml version="1.0"?>
<PATDOC><SDOBI>
  <B110><DNUM>100</DNUM></B110>
  <B540><STEXT>Widget</STEXT></B540>
  <B510><IC>A01B</IC><IC>B02C</IC></B510>
  <CL><CLM><PTEXT>a claim</PTEXT></CLM></CL>
</SDOBI></PATDOC>
<?xml version="1.0"?>
<PATDOC><SDOBI>
  <B110><DNUM>200</DNUM></B110>
  <B540><STEXT>Gadget</STEXT></B540>
</SDOBI></PATDOC>
`

// writeFixtures lays out a mapping file and one XML batch file, and
// returns (mappingPath, inputPath, outputDir).
func writeFixtures(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()

	mappingPath := filepath.Join(dir, "mapping.json")
	if err := os.WriteFile(mappingPath, []byte(testMapping), 0o644); err != nil {
		t.Fatalf("write mapping: %v", err)
	}
	inputPath := filepath.Join(dir, "batch.xml")
	if err := os.WriteFile(inputPath, []byte(testDocs), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return mappingPath, inputPath, filepath.Join(dir, "out")
}

// TestRun_EndToEnd verifies the whole pipeline through the command
// surface: discover, split, extract, and write CSVs.
func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	mappingPath, inputPath, outDir := writeFixtures(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-input", inputPath,
		"-mapping", mappingPath,
		"-output", outDir,
		"-q",
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr.String())
	}

	docs, err := os.ReadFile(filepath.Join(outDir, "documents.csv"))
	if err != nil {
		t.Fatalf("read documents.csv: %v", err)
	}
	want := "id,title,classes\n100,Widget,A01B|B02C\n200,Gadget,\n"
	if string(docs) != want {
		t.Fatalf("expected %q, got %q", want, docs)
	}

	claims, err := os.ReadFile(filepath.Join(outDir, "claims.csv"))
	if err != nil {
		t.Fatalf("read claims.csv: %v", err)
	}
	if string(claims) != "id,documents_id,text\n0,100,a claim\n" {
		t.Fatalf("unexpected claims.csv: %q", claims)
	}

	if !strings.Contains(stdout.String(), "processed 2 documents") {
		t.Fatalf("unexpected summary: %q", stdout.String())
	}
}

// TestRun_DatabaseLoad verifies -db-kind loads the same tables into
// SQLite after the CSV pass.
func TestRun_DatabaseLoad(t *testing.T) {
	t.Parallel()

	mappingPath, inputPath, outDir := writeFixtures(t)
	dbPath := filepath.Join(t.TempDir(), "out.db")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-input", inputPath,
		"-mapping", mappingPath,
		"-output", outDir,
		"-db-kind", "sqlite",
		"-db-dsn", dbPath,
		"-q",
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr.String())
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "documents"`).Scan(&n); err != nil {
		t.Fatalf("count documents: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 document rows, got %d", n)
	}
	var title string
	if err := db.QueryRow(`SELECT "title" FROM "documents" WHERE "id" = '100'`).Scan(&title); err != nil {
		t.Fatalf("select title: %v", err)
	}
	if title != "Widget" {
		t.Fatalf("expected Widget, got %q", title)
	}
}

// TestRun_UsageErrors verifies missing or inconsistent flags exit with
// code 2 before any processing.
func TestRun_UsageErrors(t *testing.T) {
	t.Parallel()

	mappingPath, inputPath, outDir := writeFixtures(t)

	cases := []struct {
		name string
		args []string
	}{
		{"no input", []string{"-mapping", mappingPath, "-output", outDir}},
		{"no mapping", []string{"-input", inputPath, "-output", outDir}},
		{"no output", []string{"-input", inputPath, "-mapping", mappingPath}},
		{"db kind without dsn", []string{
			"-input", inputPath, "-mapping", mappingPath, "-output", outDir,
			"-db-kind", "sqlite",
		}},
		{"unknown metrics backend", []string{
			"-input", inputPath, "-mapping", mappingPath, "-output", outDir,
			"-metrics-backend", "statsd",
		}},
		{"bad docid pattern", []string{
			"-input", inputPath, "-mapping", mappingPath, "-output", outDir,
			"-docid-pattern", "(",
		}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), tc.args, &stdout, &stderr); code != 2 {
				t.Fatalf("expected exit 2, got %d (stderr: %s)", code, stderr.String())
			}
		})
	}
}

// TestRun_BadMapping verifies an invalid mapping file is a config
// error, reported before any input is touched.
func TestRun_BadMapping(t *testing.T) {
	t.Parallel()

	_, inputPath, outDir := writeFixtures(t)
	badMapping := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(badMapping, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write mapping: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-input", inputPath, "-mapping", badMapping, "-output", outDir,
	}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(stderr.String(), "mapping") {
		t.Fatalf("expected mapping error, got %q", stderr.String())
	}
}
