package dropfolder

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Scanner lists newly deposited PDF files. The folder is polled, never
// locked: a file counts as claimed once its path enters the in-memory
// processed-set. A crash between processing and that set being rebuilt
// causes reprocessing on restart, matching the publisher's own
// at-least-once behavior.
type Scanner struct {
	dir  string
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewScanner creates a scanner over the drop folder.
func NewScanner(dir string) *Scanner {
	return &Scanner{
		dir:  dir,
		seen: make(map[string]struct{}),
	}
}

// ListNew returns deposited PDFs not yet claimed, claiming each one.
// Files stay in place; only the processed-set prevents reprocessing
// within one process lifetime.
func (s *Scanner) ListNew() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if _, claimed := s.seen[path]; claimed {
			continue
		}
		s.seen[path] = struct{}{}
		fresh = append(fresh, path)
	}
	return fresh, nil
}

// Seen reports whether a path has been claimed.
func (s *Scanner) Seen(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[path]
	return ok
}
