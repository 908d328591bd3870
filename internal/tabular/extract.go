package tabular

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"docdbtab/internal/mapping"
)

// joinSep separates values of a join-form binding.
const joinSep = "|"

// ShapeError reports a structural mismatch between a document and the
// mapping: a plain scalar binding or a primary-key path matched an
// unexpected number of elements. It is scoped to the current document;
// the batch driver skips the document and continues.
//
// The single-match assertion is deliberate strictness: an unexpectedly
// repeated field fails fast instead of reaching output as a wrong value.
type ShapeError struct {
	// Path is the offending relative path from the mapping.
	Path string
	// Matches is how many elements the path matched.
	Matches int
	// Values holds the normalized texts of the matches, for diagnostics.
	Values []string
}

func (e *ShapeError) Error() string {
	if e.Matches == 0 {
		return fmt.Sprintf("path %q matched no elements, exactly one required", e.Path)
	}
	return fmt.Sprintf("path %q matched %d elements, exactly one required: %q", e.Path, e.Matches, e.Values)
}

// Extract applies every top-level mapping entry to the document root,
// appending produced records to stage. Top-level entries are special:
// their path selects the root itself as the sole match rather than
// performing a sub-path search.
//
// Scalar bindings populate rec (callers at the top level pass a
// throwaway record); entity bindings append records to their table via
// stage. On error the stage holds partial records and must be discarded
// by the caller, never committed.
func Extract(root *etree.Element, m *mapping.Mapping, stage *Stage) error {
	for _, entry := range m.Entries {
		if err := process([]*etree.Element{root}, entry.Path, entry.Node, Record{}, stage, "", ""); err != nil {
			return err
		}
	}
	return nil
}

// process populates rec (scalar kinds) or appends records to stage
// (entities), recursing into entity sub-bindings. elems is the match set
// of path, already resolved by the caller against the enclosing element.
func process(elems []*etree.Element, path string, node *mapping.Node, rec Record, stage *Stage, parentEntity, parentID string) error {
	switch node.Kind {
	case mapping.Literal:
		// The match set is not inspected at all: a literal encodes which
		// mapping entry was taken, not document content.
		rec[node.Column] = node.Value
		return nil

	case mapping.Join:
		parts := make([]string, 0, len(elems))
		for _, el := range elems {
			parts = append(parts, Text(el))
		}
		rec[node.Column] = strings.Join(parts, joinSep)
		return nil

	case mapping.Plain:
		if len(elems) == 0 {
			// Optional field: leave the column unset.
			return nil
		}
		if len(elems) > 1 {
			return &ShapeError{Path: path, Matches: len(elems), Values: texts(elems)}
		}
		rec[node.Column] = Text(elems[0])
		return nil

	case mapping.Entity:
		for _, el := range elems {
			if err := processEntity(el, node, stage, parentEntity, parentID); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown mapping node kind %d", node.Kind)
}

// processEntity materializes one record for one matched element: assigns
// the primary key, threads the parent's id in as a foreign key, recurses
// into sub-bindings, and appends the finished record.
func processEntity(el *etree.Element, node *mapping.Node, stage *Stage, parentEntity, parentID string) error {
	rec := Record{}

	id, err := resolveID(el, node, stage)
	if err != nil {
		return err
	}
	rec["id"] = id
	if parentEntity != "" {
		rec[parentEntity+"_id"] = parentID
	}

	for _, f := range node.Fields {
		sub := el.FindElements("./" + f.Path)
		if err := process(sub, f.Path, f.Node, rec, stage, node.Table, id); err != nil {
			return err
		}
	}

	stage.Append(node.Table, rec)
	return nil
}

// resolveID determines a record's primary key. A configured pk path is
// resolved relative to the matched element and must match exactly one
// element (natural key); otherwise the key is synthetic, equal to the
// table's current record count.
func resolveID(el *etree.Element, node *mapping.Node, stage *Stage) (string, error) {
	if node.PK == "" {
		return strconv.Itoa(stage.Len(node.Table)), nil
	}
	matches := el.FindElements("./" + node.PK)
	if len(matches) != 1 {
		return "", &ShapeError{Path: node.PK, Matches: len(matches), Values: texts(matches)}
	}
	return Text(matches[0]), nil
}

func texts(elems []*etree.Element) []string {
	out := make([]string, 0, len(elems))
	for _, el := range elems {
		out = append(out, Text(el))
	}
	return out
}

// ValidatePaths compiles every path in the mapping so malformed selectors
// surface as load-time errors instead of failing per document.
func ValidatePaths(m *mapping.Mapping) error {
	for _, entry := range m.Entries {
		if err := validateNodePaths(entry.Path, entry.Node); err != nil {
			return err
		}
	}
	return nil
}

func validateNodePaths(path string, node *mapping.Node) error {
	if _, err := etree.CompilePath("./" + path); err != nil {
		return fmt.Errorf("path %q: %w", path, err)
	}
	if node.Kind != mapping.Entity {
		return nil
	}
	if node.PK != "" {
		if _, err := etree.CompilePath("./" + node.PK); err != nil {
			return fmt.Errorf("entity %s pk %q: %w", node.Table, node.PK, err)
		}
	}
	for _, f := range node.Fields {
		if err := validateNodePaths(f.Path, f.Node); err != nil {
			return fmt.Errorf("entity %s: %w", node.Table, err)
		}
	}
	return nil
}
