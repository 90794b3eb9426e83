// Package storage keeps generated files (contract PDFs, exports) in a local
// directory or an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rental/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var (
	ErrKeyRequired    = errors.New("storage key is required")
	ErrObjectNotFound = errors.New("object not found")
)

// ObjectStore is the minimal surface the application needs
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	// URL returns a link the client can download the object from
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (ObjectStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", config.StorageLocal:
		return NewLocalStore(cfg.LocalDir, cfg.LocalBaseURL)
	case config.StorageS3:
		s, err := NewS3Store(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrKeyRequired
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("invalid storage key %q", key)
		}
	}
	return key, nil
}
