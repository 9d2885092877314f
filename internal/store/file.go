package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps one file per key under dir. Writes go to a temp file
// and are renamed into place, so a crash never leaves a torn value.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir failed: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read snapshot failed: %w", err)
	}
	return string(data), nil
}

func (f *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.path(key)
	temp := path + ".tmp"
	if err := os.WriteFile(temp, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write snapshot failed: %w", err)
	}
	if err := os.Rename(temp, path); err != nil {
		return fmt.Errorf("replace snapshot failed: %w", err)
	}
	return nil
}

func (f *FileStore) Ping(context.Context) error {
	_, err := os.Stat(f.dir)
	return err
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".json")
}
