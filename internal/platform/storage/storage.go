// Package storage keeps generated files (synthesized speech) on local disk or
// in an S3-compatible bucket. Files are addressed by a flat key such as
// "<task_id>.mp3"; the key is what task records store as file_path.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/dudoxx/dudoxx-api/internal/config"
)

// ErrNotFound is returned when no file exists under a key.
var ErrNotFound = errors.New("file not found")

// ErrInvalidKey is returned for empty keys or keys that try to leave the store.
var ErrInvalidKey = errors.New("invalid file key")

// Object is an opened file. The caller must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
	ModTime     time.Time
}

// FileStore saves and serves generated files.
type FileStore interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Open(ctx context.Context, key string) (*Object, error)
	Remove(ctx context.Context, key string) error
}

// New builds the FileStore selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (FileStore, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.LocalDir, logger)
	case "s3":
		return NewMinioStore(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// cleanKey rejects keys that are empty or contain path separators.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || key != path.Base(key) || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return key, nil
}
