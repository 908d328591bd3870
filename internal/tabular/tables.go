package tabular

// Record is one extracted row: column name to text value. All extracted
// values are text; there are no typed columns.
type Record map[string]string

// TableSet accumulates records per table across an entire batch run.
// Tables are created lazily on first insertion and are append-only;
// nothing mutates or deletes a committed record.
type TableSet struct {
	tables map[string][]Record
	names  []string
}

func NewTableSet() *TableSet {
	return &TableSet{tables: make(map[string][]Record)}
}

// Len returns the number of committed records in a table. Unknown tables
// have length zero.
func (t *TableSet) Len(table string) int {
	return len(t.tables[table])
}

// Records returns a table's committed records in insertion order.
func (t *TableSet) Records(table string) []Record {
	return t.tables[table]
}

// Names returns the populated table names in first-insertion order.
func (t *TableSet) Names() []string {
	return t.names
}

func (t *TableSet) append(table string, recs []Record) {
	if len(recs) == 0 {
		return
	}
	if _, ok := t.tables[table]; !ok {
		t.names = append(t.names, table)
	}
	t.tables[table] = append(t.tables[table], recs...)
}

// Stage buffers one document's records on top of a TableSet. The engine
// writes into a Stage; Commit publishes everything at once, so a failed
// document leaves the shared set untouched.
//
// Synthetic ids are derived from Len, which counts committed plus staged
// records. Committed output is therefore identical to extracting without
// staging, while discarding a stage rolls the document back completely.
type Stage struct {
	parent  *TableSet
	pending map[string][]Record
	order   []string
}

func (t *TableSet) NewStage() *Stage {
	return &Stage{parent: t, pending: make(map[string][]Record)}
}

// Len returns the table's effective length: committed records plus
// records staged for the current document.
func (s *Stage) Len(table string) int {
	return s.parent.Len(table) + len(s.pending[table])
}

// Append stages one record for the current document.
func (s *Stage) Append(table string, rec Record) {
	if _, ok := s.pending[table]; !ok {
		s.order = append(s.order, table)
	}
	s.pending[table] = append(s.pending[table], rec)
}

// Commit publishes all staged records to the parent set, preserving the
// order tables were first written in. The stage is empty afterwards.
func (s *Stage) Commit() {
	for _, table := range s.order {
		s.parent.append(table, s.pending[table])
	}
	s.pending = make(map[string][]Record)
	s.order = nil
}
