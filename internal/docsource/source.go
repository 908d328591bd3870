// Package docsource discovers XML inputs on disk and splits physical
// files into the logical documents they concatenate.
package docsource

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover resolves the input argument to a list of XML files: the file
// itself, or every *.xml under a directory (descending into
// subdirectories when recurse is set). The list is sorted so batch
// output is stable across runs.
//
// An input that is neither a readable file nor a directory is a fatal
// setup error; no partial processing is attempted.
func Discover(input string, recurse bool) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", input, err)
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	var files []string
	if recurse {
		err = filepath.WalkDir(input, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isXML(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", input, err)
		}
	} else {
		entries, err := os.ReadDir(input)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", input, err)
		}
		for _, e := range entries {
			if !e.IsDir() && isXML(e.Name()) {
				files = append(files, filepath.Join(input, e.Name()))
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func isXML(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xml")
}
