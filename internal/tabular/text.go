// Package tabular flattens parsed XML documents into relational tables,
// guided by a declarative mapping. It contains the extraction engine,
// the key assignment and column-order rules, and the batch driver that
// accumulates tables across many documents.
package tabular

import (
	"strings"

	"github.com/beevik/etree"
)

// Text serializes an element subtree to a single string: all descendant
// character data in document order, with every run of whitespace
// (including newlines) collapsed to one space and the ends trimmed.
// Tags and attributes never appear in the output.
func Text(e *etree.Element) string {
	var b strings.Builder
	collectText(e, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(e *etree.Element, b *strings.Builder) {
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			collectText(t, b)
		}
	}
}
