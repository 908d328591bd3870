package tabular

import "docdbtab/internal/mapping"

// Fieldnames computes, for every table the mapping can populate, the
// ordered, deduplicated list of column names any record may use. It is a
// static pass over the mapping alone, so the result is independent of
// which documents are processed and in what order.
//
// Several mapping entries may feed the same table; each contributes its
// columns in configured order, and a table's final list is the
// first-occurrence-ordered union across all of them.
func Fieldnames(m *mapping.Mapping) map[string][]string {
	out := make(map[string][]string)
	for _, entry := range m.Entries {
		var discard []string
		addFieldnames(entry.Node, &discard, "", out)
	}
	return out
}

// addFieldnames contributes a node's columns to acc (the enclosing
// entity's accumulator). Entity nodes start a fresh accumulator seeded
// with the key columns the engine always writes, then merge it into the
// table's global list.
func addFieldnames(node *mapping.Node, acc *[]string, parentEntity string, out map[string][]string) {
	switch node.Kind {
	case mapping.Plain, mapping.Join, mapping.Literal:
		*acc = append(*acc, node.Column)

	case mapping.Entity:
		local := []string{"id"}
		if parentEntity != "" {
			local = append(local, parentEntity+"_id")
		}
		for _, f := range node.Fields {
			addFieldnames(f.Node, &local, node.Table, out)
		}
		out[node.Table] = mergeColumns(out[node.Table], local)
	}
}

// mergeColumns appends the columns of extra that base does not already
// contain, preserving first-occurrence order across both inputs.
func mergeColumns(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, c := range base {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, c := range extra {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
