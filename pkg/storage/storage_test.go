package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/metadata-extractor/pkg/logger"
)

func TestParseStorageType(t *testing.T) {
	for _, name := range []string{"local", "s3", "minio"} {
		st, err := ParseStorageType(name)
		require.NoError(t, err)
		assert.Equal(t, StorageType(name), st)
	}

	_, err := ParseStorageType("ftp")
	assert.Error(t, err)
}

func TestNewStorageLocal(t *testing.T) {
	t.Setenv("LOCAL_STORAGE_DIR", t.TempDir())

	s, err := NewStorage(StorageTypeLocal, logger.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = NewStorage("ftp", logger.NewNop())
	assert.Error(t, err)
}
