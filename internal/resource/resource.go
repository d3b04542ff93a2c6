// Package resource implements the file-acquisition boundary the rest
// of the compiler is built against: every read an import or an `embed`
// expression performs, and every write an output or debug formatter
// performs, goes through a Manager rather than touching os directly.
package resource

import (
	"io"
	"os"
	"path/filepath"
)

// Resource is an opened input: its two paths (the one the user/importer
// wrote, and the one actually resolved against import directories) plus
// the open reader. Callers close it when done; Manager never retains
// ownership past the call that returned it.
type Resource struct {
	DisplayPath   string
	CanonicalPath string
	io.ReadCloser
}

// Manager resolves import/embed paths to readers and output paths to
// writers. The default Manager talks to the local filesystem;
// <stdin>/<...> are synthetic display paths a Manager implementation
// may special-case (FileManager does, for <stdin>).
type Manager interface {
	// ReadFile opens displayPath, searching searchDirs in order if
	// displayPath is not already absolute or directly openable.
	ReadFile(displayPath string, searchDirs []string) (Resource, error)
	// Create opens path for writing, truncating any existing content.
	Create(path string) (io.WriteCloser, error)
}

// FileManager is the on-disk Manager every CLI invocation uses.
type FileManager struct{}

const stdinDisplayPath = "<stdin>"

func (FileManager) ReadFile(displayPath string, searchDirs []string) (Resource, error) {
	if displayPath == stdinDisplayPath {
		return Resource{DisplayPath: displayPath, CanonicalPath: displayPath, ReadCloser: io.NopCloser(os.Stdin)}, nil
	}

	if filepath.IsAbs(displayPath) {
		f, err := os.Open(displayPath)
		if err != nil {
			return Resource{}, err
		}
		return Resource{DisplayPath: displayPath, CanonicalPath: displayPath, ReadCloser: f}, nil
	}

	candidates := append([]string{""}, searchDirs...)
	var lastErr error
	for _, dir := range candidates {
		path := displayPath
		if dir != "" {
			path = filepath.Join(dir, displayPath)
		}
		f, err := os.Open(path)
		if err == nil {
			canonical, absErr := filepath.Abs(path)
			if absErr != nil {
				canonical = path
			}
			return Resource{DisplayPath: displayPath, CanonicalPath: canonical, ReadCloser: f}, nil
		}
		lastErr = err
	}
	return Resource{}, lastErr
}

func (FileManager) Create(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}
