package docsource

import (
	"bufio"
	"bytes"
	"io"
)

var prologue = []byte("<?xml")

// Scanner yields one logical XML document at a time from a physical
// stream that may concatenate many. A new document begins at each line
// starting with an XML prologue; everything up to the next prologue line
// (or EOF) belongs to the current document.
//
// Usage follows bufio.Scanner:
//
//	sc := docsource.NewScanner(f)
//	for sc.Scan() {
//		process(sc.Doc())
//	}
//	if err := sc.Err(); err != nil { ... }
type Scanner struct {
	r    *bufio.Reader
	doc  []byte
	next []byte
	err  error
	done bool
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// Scan advances to the next document. It returns false at end of input
// or on a read error; Err distinguishes the two.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}

	var buf bytes.Buffer
	buf.Write(s.next)
	s.next = nil

	for {
		line, err := s.r.ReadBytes('\n')
		if len(line) > 0 {
			if bytes.HasPrefix(line, prologue) && buf.Len() > 0 {
				// The prologue opens the next document; hold it over.
				s.next = line
				s.doc = buf.Bytes()
				return true
			}
			buf.Write(line)
		}
		if err != nil {
			if err != io.EOF {
				s.err = err
			}
			s.done = true
			if buf.Len() == 0 {
				return false
			}
			s.doc = buf.Bytes()
			return true
		}
	}
}

// Doc returns the current document. The slice is owned by the caller
// until the next call to Scan.
func (s *Scanner) Doc() []byte {
	return s.doc
}

// Err returns the first non-EOF error encountered.
func (s *Scanner) Err() error {
	return s.err
}
