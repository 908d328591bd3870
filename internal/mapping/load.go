package mapping

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load reads and resolves a mapping file.
func Load(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a mapping from JSON.
//
// Decoding is token-level rather than map-based: the order of keys in
// the mapping file defines processing order and output column order, and
// Go's JSON maps do not preserve it.
func Parse(r io.Reader) (*Mapping, error) {
	dec := json.NewDecoder(r)

	entries, err := parseFields(dec)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("mapping has no entries")
	}

	// Anything after the root object is a malformed file.
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing content after mapping object")
	}

	return &Mapping{Entries: entries}, nil
}

// parseFields consumes one JSON object of path -> directive-or-entity
// pairs, preserving key order.
func parseFields(dec *json.Decoder) ([]Field, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var out []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		path, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", tok)
		}
		if path == "" {
			return nil, fmt.Errorf("empty path key")
		}

		node, err := parseNode(dec)
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", path, err)
		}
		out = append(out, Field{Path: path, Node: node})
	}

	// Closing '}'.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// parseNode consumes one value: a string directive or an entity object.
func parseNode(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case string:
		return parseDirective(t)

	case json.Delim:
		if t != '{' {
			return nil, fmt.Errorf("unexpected %v; want string directive or object", t)
		}
		return parseEntity(dec)

	default:
		return nil, fmt.Errorf("unexpected %v; want string directive or object", tok)
	}
}

// parseEntity consumes the body of an entity object. The opening '{' has
// already been read.
func parseEntity(dec *json.Decoder) (*Node, error) {
	n := &Node{Kind: Entity}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", tok)
		}

		switch key {
		case "entity":
			if n.Table, err = stringValue(dec, key); err != nil {
				return nil, err
			}
		case "pk":
			if n.PK, err = stringValue(dec, key); err != nil {
				return nil, err
			}
		case "fields":
			if n.Fields, err = parseFields(dec); err != nil {
				return nil, fmt.Errorf("fields: %w", err)
			}
		default:
			return nil, fmt.Errorf("unknown entity key %q", key)
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if n.Table == "" {
		return nil, fmt.Errorf("entity object is missing %q", "entity")
	}
	return n, nil
}

func stringValue(dec *json.Decoder, key string) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected string, got %v", key, tok)
	}
	if s == "" {
		return "", fmt.Errorf("%s: empty string", key)
	}
	return s, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
