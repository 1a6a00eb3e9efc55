package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore reads and writes files on the local disk.
type LocalStore struct{}

// NewLocalStore returns a LocalStore.
func NewLocalStore() *LocalStore {
	return &LocalStore{}
}

// Fetch reads the file at path.
func (s *LocalStore) Fetch(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LocalStore.Fetch: %w", err)
	}
	return data, nil
}

// Put writes data to a temporary file in the target directory and renames it
// over path.
func (s *LocalStore) Put(ctx context.Context, path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("LocalStore.Put: create directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("LocalStore.Put: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("LocalStore.Put: write %q: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("LocalStore.Put: sync %q: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("LocalStore.Put: close %q: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("LocalStore.Put: chmod %q: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("LocalStore.Put: rename to %q: %w", path, err)
	}
	return nil
}

func extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
