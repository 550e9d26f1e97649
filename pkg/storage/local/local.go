// Package local stores objects as files under a base directory.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/feichai0017/metadata-extractor/pkg/logger"
)

type LocalStorage struct {
	baseDir string
	logger  logger.Logger
}

func NewLocalStorage(baseDir string, log logger.Logger) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("local storage base directory is empty")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, logger: log}, nil
}

// path maps a key onto a single file name inside baseDir.
func (l *LocalStorage) path(key string) (string, error) {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(key)
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(l.baseDir, name), nil
}

func (l *LocalStorage) Store(ctx context.Context, reader io.Reader, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst, err := l.path(key)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(l.baseDir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	return key, nil
}

func (l *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	src, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return f, nil
}

func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		l.logger.Error("Failed to delete file",
			logger.String("key", key),
			logger.Error(err),
		)
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *LocalStorage) CleanupBefore(ctx context.Context, threshold time.Time) error {
	entries, err := os.ReadDir(l.baseDir)
	if err != nil {
		return fmt.Errorf("failed to list objects: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(threshold) {
			if err := os.Remove(filepath.Join(l.baseDir, e.Name())); err != nil {
				l.logger.Error("Failed to delete expired object",
					logger.String("key", e.Name()),
					logger.Error(err),
				)
				continue
			}
			l.logger.Info("Deleted expired object",
				logger.String("key", e.Name()),
				logger.Time("lastModified", info.ModTime()),
			)
		}
	}
	return nil
}
