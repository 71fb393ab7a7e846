// Package tempfile allocates collision-free output paths for converted files
// and removes them according to the keep policy.
package tempfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Error definitions for the tempfile package
var (
	// ErrNotManaged is returned when a path was not reserved by the manager
	ErrNotManaged = errors.New("temporary file not managed")
	// ErrCleanupFailed is returned when temporary file cleanup fails
	ErrCleanupFailed = errors.New("temporary file cleanup failed")
	// ErrOriginalPath is returned when a reservation would alias the original
	ErrOriginalPath = errors.New("reserved path equals the original")
)

// DirName is the directory created under the system temp dir.
const DirName = "encodingman"

// Manager tracks temporary output files.
type Manager struct {
	mu      sync.Mutex
	files   map[string]bool // file path -> managed flag
	baseDir string
	keep    bool
}

// NewManager creates a manager storing files in baseDir. An empty baseDir
// uses <os temp dir>/encodingman. With keep set, CleanupAll leaves files in place.
func NewManager(baseDir string, keep bool) *Manager {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), DirName)
	}
	return &Manager{
		files:   make(map[string]bool),
		baseDir: baseDir,
		keep:    keep,
	}
}

// Dir returns the directory outputs are placed in.
func (m *Manager) Dir() string {
	return m.baseDir
}

// Keep reports the keep policy.
func (m *Manager) Keep() bool {
	return m.keep
}

// Reserve returns a fresh path for the converted form of original, named
// <stem>_<target>_<id><ext>. The file itself is not created.
func (m *Manager) Reserve(original, target string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.baseDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}

	base := filepath.Base(original)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := fmt.Sprintf("%s_%s_%s%s", stem, suffix(target), id, ext)
	path := filepath.Join(m.baseDir, name)

	absOrig, errO := filepath.Abs(original)
	absPath, errP := filepath.Abs(path)
	if errO == nil && errP == nil && absOrig == absPath {
		return "", fmt.Errorf("%w: %s", ErrOriginalPath, original)
	}

	m.files[path] = true
	return path, nil
}

// suffix turns a target name into a filename-friendly tag, e.g. utf-8-bom -> utf8bom.
func suffix(target string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(target))
}

// Release stops tracking path without removing it. A released file is left
// to Sweep.
func (m *Manager) Release(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.files[path] {
		return fmt.Errorf("%w: %s", ErrNotManaged, path)
	}
	delete(m.files, path)
	return nil
}

// CleanupAll removes every managed file unless the keep policy is set.
func (m *Manager) CleanupAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.keep {
		return nil
	}

	var errs []error
	for path := range m.files {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to cleanup %s: %w", path, err))
		} else {
			delete(m.files, path)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrCleanupFailed, errors.Join(errs...))
	}
	return nil
}

// Tracked returns the managed paths in sorted order.
func (m *Manager) Tracked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.files))
	for path := range m.files {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Sweep removes regular files in the temp directory last modified more
// than olderThan ago, including those left by earlier runs. It returns the
// number of files removed.
func (m *Manager) Sweep(olderThan time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := os.ReadDir(m.baseDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read temporary directory: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.baseDir, e.Name())
		if err := os.Remove(path); err != nil {
			errs = append(errs, fmt.Errorf("failed to cleanup %s: %w", path, err))
			continue
		}
		delete(m.files, path)
		removed++
	}

	if len(errs) > 0 {
		return removed, fmt.Errorf("%w: %w", ErrCleanupFailed, errors.Join(errs...))
	}
	return removed, nil
}
