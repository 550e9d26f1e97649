package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/feichai0017/metadata-extractor/config"
	"github.com/feichai0017/metadata-extractor/pkg/logger"
	"github.com/feichai0017/metadata-extractor/pkg/storage/local"
	"github.com/feichai0017/metadata-extractor/pkg/storage/minio"
	"github.com/feichai0017/metadata-extractor/pkg/storage/s3"
)

type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

// Storage holds extraction results and exports by key.
type Storage interface {
	// Store writes reader under key and returns the stored key.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes objects last modified before threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// ParseStorageType validates a storage type name.
func ParseStorageType(s string) (StorageType, error) {
	switch t := StorageType(s); t {
	case StorageTypeLocal, StorageTypeS3, StorageTypeMinio:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported storage type: %s", s)
	}
}

// NewStorage builds the backend for storageType from the environment
// configuration.
func NewStorage(storageType StorageType, log logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeLocal:
		return local.NewLocalStorage(config.GetLocalStorageConfig().BaseDir, log)
	case StorageTypeS3:
		return s3.NewS3Storage(context.Background(), config.GetS3Config(), log)
	case StorageTypeMinio:
		return minio.NewMinioStorage(context.Background(), config.GetMinioConfig(), log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
