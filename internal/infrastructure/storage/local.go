package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes objects below a directory. URLs are built from baseURL,
// which the HTTP layer serves as a static route.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates dir if needed
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if dir == "" {
		dir = "data/files"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if baseURL == "" {
		baseURL = "/files"
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the root directory
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) path(key string) (string, string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", "", err
	}
	return key, filepath.Join(s.dir, filepath.FromSlash(key)), nil
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte, _ string) error {
	_, p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return os.Rename(tmp, p)
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	_, p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	return data, err
}

func (s *LocalStore) URL(_ context.Context, key string) (string, error) {
	key, _, err := s.path(key)
	if err != nil {
		return "", err
	}
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return s.baseURL + "/" + path.Join(parts...), nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	_, p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
