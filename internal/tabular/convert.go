package tabular

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"go.uber.org/zap"

	"docdbtab/internal/docsource"
	"docdbtab/internal/mapping"
	"docdbtab/internal/metrics"
)

// DefaultDocIDPattern recovers a DOCDB publication number from raw
// document bytes for failure diagnostics. It only succeeds for documents
// carrying a well-formed B210 block; other schemas should configure
// their own pattern.
var DefaultDocIDPattern = regexp.MustCompile(`<B210><DNUM><PDAT>(\d+)</PDAT></DNUM></B210>`)

// Converter drives extraction across a batch of input files, isolating
// per-document failures and accumulating every document's records into
// one shared table set.
type Converter struct {
	Mapping *mapping.Mapping
	Tables  *TableSet
	Log     *zap.Logger

	// DocIDPattern identifies the offending document in diagnostics when
	// processing fails. Group 1 is the identifier. It runs over raw
	// bytes because a document that failed to parse has no tree to
	// query. Nil disables recovery.
	DocIDPattern *regexp.Regexp
}

func NewConverter(m *mapping.Mapping, log *zap.Logger) *Converter {
	return &Converter{
		Mapping:      m,
		Tables:       NewTableSet(),
		Log:          log,
		DocIDPattern: DefaultDocIDPattern,
	}
}

// Summary reports batch counts.
type Summary struct {
	Files     int
	Documents int
	Failed    int
}

// Convert processes every input file in order. Per-document failures are
// logged and skipped; a file-level read error aborts the batch.
func (c *Converter) Convert(files []string) (Summary, error) {
	var sum Summary
	for _, path := range files {
		processed, failed, err := c.ConvertFile(path)
		if err != nil {
			return sum, err
		}
		sum.Files++
		sum.Documents += processed + failed
		sum.Failed += failed
	}

	for _, name := range c.Tables.Names() {
		metrics.IncCounter("docdb_records_total", float64(c.Tables.Len(name)), metrics.Labels{"table": name})
	}
	return sum, nil
}

// ConvertFile splits one physical file into logical documents and
// processes each. A document that fails extraction contributes nothing
// to the table set; the rest of the file still processes.
func (c *Converter) ConvertFile(path string) (processed, failed int, err error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	c.Log.Info("processing file", zap.String("file", path))

	sc := docsource.NewScanner(f)
	n := 0
	for sc.Scan() {
		n++
		if n%100 == 1 {
			c.Log.Debug("processing document", zap.String("file", path), zap.Int("doc", n))
		}

		doc := sc.Doc()
		if perr := c.ProcessDoc(doc); perr != nil {
			failed++
			c.Log.Warn("document skipped",
				zap.String("file", path),
				zap.String("doc_id", c.docID(doc)),
				zap.Error(perr),
			)
			metrics.IncCounter("docdb_documents_total", 1, metrics.Labels{"status": "failed"})
			continue
		}
		processed++
		metrics.IncCounter("docdb_documents_total", 1, metrics.Labels{"status": "ok"})
	}
	if serr := sc.Err(); serr != nil {
		return processed, failed, fmt.Errorf("read %s: %w", path, serr)
	}

	dur := time.Since(start)
	metrics.ObserveHistogram("docdb_file_duration_seconds", dur.Seconds(), nil)
	c.Log.Info("file processed",
		zap.String("file", path),
		zap.Int("documents", n),
		zap.Int("failed", failed),
		zap.Duration("duration", dur.Truncate(time.Millisecond)),
	)
	return processed, failed, nil
}

// ProcessDoc parses one logical document and applies every top-level
// mapping entry to it. Records are staged and committed atomically: on
// any failure the shared table set is left exactly as it was.
func (c *Converter) ProcessDoc(doc []byte) error {
	root, err := parseDoc(doc)
	if err != nil {
		return err
	}

	stage := c.Tables.NewStage()
	if err := Extract(root, c.Mapping, stage); err != nil {
		return err
	}
	stage.Commit()
	return nil
}

// docID makes a best-effort attempt to identify a document for
// diagnostics. Returns "unknown" when the pattern is unset or misses.
func (c *Converter) docID(doc []byte) string {
	if c.DocIDPattern == nil {
		return "unknown"
	}
	m := c.DocIDPattern.FindSubmatch(doc)
	if len(m) < 2 {
		return "unknown"
	}
	return string(m[1])
}
