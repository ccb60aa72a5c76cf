package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// tempFilePrefix marks in-flight atomic writes.
const tempFilePrefix = "ikitsuke-tmp-"

var collectionName = regexp.MustCompile(`^[a-z0-9_-]+$`)

// FileStore keeps each collection as <dir>/<collection>.json, the same
// layout the data directory had before the database backends existed.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("kv: create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(collection string) (string, error) {
	if !collectionName.MatchString(collection) {
		return "", fmt.Errorf("kv: invalid collection name %q", collection)
	}
	return filepath.Join(f.dir, collection+".json"), nil
}

// Get reads the collection file.
func (f *FileStore) Get(ctx context.Context, collection string) ([]byte, error) {
	p, err := f.path(collection)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

// Put rewrites the collection file atomically.
func (f *FileStore) Put(ctx context.Context, collection string, data []byte) error {
	p, err := f.path(collection)
	if err != nil {
		return err
	}
	return writeFileAtomic(p, data, 0o644)
}

// Close is a no-op.
func (f *FileStore) Close() error { return nil }

// writeFileAtomic writes to a temp file in the same directory and renames
// it over filename, so readers see either the old or the new document.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), tempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", filename, err)
	}
	return nil
}
