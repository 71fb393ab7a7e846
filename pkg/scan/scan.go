// Package scan expands folder arguments into the files a batch should process.
package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scanner lists files under directories. Explicit file arguments are kept
// whatever their extension, so the pipeline can still classify them.
type Scanner struct {
	// Extensions filters files found inside directories, e.g. ".csv".
	// Empty accepts every file.
	Extensions []string
	Recursive  bool
}

// New creates a scanner for the given extensions.
func New(extensions []string, recursive bool) *Scanner {
	norm := make([]string, 0, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		norm = append(norm, e)
	}
	return &Scanner{Extensions: norm, Recursive: recursive}
}

// Matches reports whether a file found in a directory should be processed.
func (s *Scanner) Matches(path string) bool {
	if len(s.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range s.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Expand turns paths into a flat file list. Directory entries come out
// sorted; hidden entries inside directories are skipped. Paths that do not
// exist pass through so the batch reports them. Duplicates are dropped,
// first occurrence wins.
func (s *Scanner) Expand(paths []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		key := filepath.Clean(p)
		if abs, err := filepath.Abs(p); err == nil {
			key = abs
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			add(p)
			continue
		}

		files, err := s.walk(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return out, nil
}

func (s *Scanner) walk(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !s.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && s.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
