package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExportArchive keeps rendered attendance exports on disk so download links
// can be re-served without recomputing the report.
type ExportArchive struct {
	baseDir string
}

// NewExportArchive ensures the base directory exists and returns a handle.
func NewExportArchive(baseDir string) (*ExportArchive, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create exports directory: %w", err)
	}
	return &ExportArchive{baseDir: baseDir}, nil
}

// Save writes the given bytes under the base dir and returns the relative name.
func (a *ExportArchive) Save(filename string, data []byte) (string, error) {
	path := a.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return filename, nil
}

// Read loads a stored export.
func (a *ExportArchive) Read(filename string) ([]byte, error) {
	data, err := os.ReadFile(a.resolve(filename))
	if err != nil {
		return nil, fmt.Errorf("read export file: %w", err)
	}
	return data, nil
}

// Delete removes a stored export if present.
func (a *ExportArchive) Delete(filename string) error {
	if err := os.Remove(a.resolve(filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete export file: %w", err)
	}
	return nil
}

// CleanupOlderThan removes exports older than the TTL and returns their names.
func (a *ExportArchive) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	err := filepath.WalkDir(a.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(a.baseDir, path)
		if err != nil {
			rel = path
		}
		deleted = append(deleted, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup exports: %w", err)
	}
	return deleted, nil
}

func (a *ExportArchive) resolve(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(a.baseDir, filename)
}
