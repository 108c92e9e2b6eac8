package pdf

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DocumentExtension is the extension, compared case-insensitively, of files the batch picks up
const DocumentExtension = ".pdf"

// Search handles document discovery under an input root
type Search struct {
	// excluded directories are not descended into, e.g. an output root nested in the input root
	excluded []string

	onSkip func(path string, err error)
}

// NewSearch creates a new search that skips the given directories
func NewSearch(excluded ...string) *Search {
	s := &Search{}
	for _, dir := range excluded {
		if dir == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			s.excluded = append(s.excluded, filepath.Clean(abs))
		}
	}
	return s
}

// OnSkip registers fn to be told about directories below the root that cannot be read.
// Their documents are left out and discovery continues.
func (s *Search) OnSkip(fn func(path string, err error)) *Search {
	s.onSkip = fn
	return s
}

// isPDFFile checks if a filename has the document extension
func (s *Search) isPDFFile(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), DocumentExtension)
}

func (s *Search) isExcluded(path string) bool {
	for _, dir := range s.excluded {
		if path == dir {
			return true
		}
	}
	return false
}

// Discover enumerates every document under root, recursively, ordered by relative path.
// The result is a snapshot: files created afterwards are not seen by the run.
func (s *Search) Discover(root string) ([]DocumentRef, error) {
	if root == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot access directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	var refs []DocumentRef
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot || d == nil || !d.IsDir() {
				return err
			}
			if s.onSkip != nil {
				s.onSkip(path, err)
			}
			return filepath.SkipDir
		}

		if d.IsDir() {
			if path != absRoot && s.isExcluded(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.isPDFFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}

		refs = append(refs, DocumentRef{Path: path, RelPath: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	sort.Slice(refs, func(i, j int) bool {
		return filepath.ToSlash(refs[i].RelPath) < filepath.ToSlash(refs[j].RelPath)
	})

	return refs, nil
}
