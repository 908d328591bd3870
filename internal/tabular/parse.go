package tabular

import (
	"fmt"
	"io"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// missingEntities declares MathML entities that appear in the corpus but
// are absent from the DTDs shipped alongside it. Declaring them to the
// parser keeps documents that reference them well-formed.
var missingEntities = map[string]string{
	"IndentingNewLine":         "\uF3A3",
	"LeftBracketingBar":        "\uF603",
	"RightBracketingBar":       "\uF604",
	"LeftDoubleBracketingBar":  "\uF605",
	"RightDoubleBracketingBar": "\uF606",
}

func readSettings() etree.ReadSettings {
	return etree.ReadSettings{
		Entity:        missingEntities,
		CharsetReader: charsetReader,
	}
}

// charsetReader decodes documents whose prologue declares a non-UTF-8
// encoding. Older patent archives commonly declare iso-8859-1 or
// windows-1252; the IANA index covers both and their aliases.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", charset, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q: no decoder available", charset)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// parseDoc parses one logical XML document into a tree.
func parseDoc(doc []byte) (*etree.Element, error) {
	tree := etree.NewDocument()
	tree.ReadSettings = readSettings()
	if err := tree.ReadFromBytes(doc); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	root := tree.Root()
	if root == nil {
		return nil, fmt.Errorf("parse xml: document has no root element")
	}
	return root, nil
}
