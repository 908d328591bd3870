// Package mapping holds the declarative extraction configuration: which
// document paths populate which columns, and which paths materialize
// relational tables.
//
// A mapping is a tree. Each node is either a scalar binding (one column)
// or an entity binding (one table of records, recursively containing
// further bindings). String directives are resolved into a tagged Node
// once at load time, so the engine never re-inspects directive syntax
// per document.
package mapping

import (
	"fmt"
	"strings"
)

// Kind discriminates the node variants.
type Kind int

const (
	// Plain extracts the normalized text of exactly one matched element.
	Plain Kind = iota
	// Join extracts the normalized text of every matched element and
	// stores their "|"-separated join, even for zero or one matches.
	Join
	// Literal stores a fixed value under a fixed column, regardless of
	// whether the path matches anything. Encodes enumerated flags keyed
	// by which mapping entry matched.
	Literal
	// Entity materializes one relational table; each matched element
	// becomes one record.
	Entity
)

// Node is one resolved mapping entry.
type Node struct {
	Kind Kind

	// Column is the output column name (scalar kinds only).
	Column string
	// Value is the fixed value written by Literal nodes.
	Value string

	// Table is the entity/table name (Entity only).
	Table string
	// PK is an optional primary-key path, resolved relative to each
	// element matched by the entity's own path. Empty means synthetic
	// keys derived from table cardinality.
	PK string
	// Fields are the entity's sub-bindings in configured order. Order
	// matters: it defines both processing order and column order.
	Fields []Field
}

// Field pairs a relative path with the node it feeds.
type Field struct {
	Path string
	Node *Node
}

// Mapping is the root of the configuration: an ordered set of
// document-root-relative entries.
type Mapping struct {
	Entries []Field
}

// parseDirective resolves one string directive into a scalar Node.
//
// Forms:
//
//	"name"          plain column
//	"|name"         join column
//	"name:literal"  fixed value under "name"
//
// The "|" prefix wins over ":" so a join column name may contain a colon.
func parseDirective(s string) (*Node, error) {
	if s == "" {
		return nil, fmt.Errorf("empty directive")
	}
	if rest, ok := strings.CutPrefix(s, "|"); ok {
		if rest == "" {
			return nil, fmt.Errorf("join directive %q has no column name", s)
		}
		return &Node{Kind: Join, Column: rest}, nil
	}
	if name, val, ok := strings.Cut(s, ":"); ok {
		if name == "" {
			return nil, fmt.Errorf("literal directive %q has no column name", s)
		}
		return &Node{Kind: Literal, Column: name, Value: val}, nil
	}
	return &Node{Kind: Plain, Column: s}, nil
}
