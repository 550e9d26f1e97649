package validator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/metadata-extractor/internal/models"
	"github.com/feichai0017/metadata-extractor/pkg/logger"
)

func TestValidateRequest(t *testing.T) {
	v := NewPathValidator(logger.NewNop(), &ValidatorConfig{MaxBatchSize: 2})

	assert.NoError(t, v.ValidateRequest(&ExtractRequest{Path: "/tmp/a.jpg"}))
	assert.Error(t, v.ValidateRequest(&ExtractRequest{}))

	assert.NoError(t, v.ValidateRequest(&BatchRequest{Paths: []string{"a", "b"}}))

	err := v.ValidateRequest(&BatchRequest{Paths: []string{"a", "b", "c"}})
	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "BATCH_TOO_LARGE", errs[0].Code)

	err = v.ValidateRequest(&BatchRequest{Paths: []string{"a", ""}})
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, "INVALID_REQUIRED", errs[0].Code)

	assert.Error(t, v.ValidateRequest(&BatchRequest{}))
	assert.Error(t, v.ValidateRequest(&BatchRequest{Paths: []string{"a"}, Priority: 5}))
}

func TestValidatePathRoots(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	v := NewPathValidator(logger.NewNop(), &ValidatorConfig{AllowedRoots: []string{root}})

	inside := filepath.Join(root, "sub", "a.png")
	assert.True(t, v.ValidatePath(inside).IsValid)
	assert.True(t, v.ValidatePath(root).IsValid)

	res := v.ValidatePath(filepath.Join(other, "a.png"))
	assert.False(t, res.IsValid)
	assert.Equal(t, "PATH_NOT_ALLOWED", res.Errors[0].Code)
	assert.Error(t, res.Err())

	res = v.ValidatePath(filepath.Join(root, "..", filepath.Base(other), "a.png"))
	assert.False(t, res.IsValid)

	res = v.ValidatePath("  ")
	assert.False(t, res.IsValid)
	assert.Equal(t, "EMPTY_PATH", res.Errors[0].Code)
}

func TestValidatePathFileInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.TXT")
	require.NoError(t, os.WriteFile(path, []byte("plain text content\n"), 0o644))

	table, err := models.NewCategoryTable(nil, nil, nil, []string{".txt"})
	require.NoError(t, err)
	v := NewPathValidator(nil, &ValidatorConfig{Categories: table})

	res := v.ValidatePath(path)
	require.True(t, res.IsValid)
	assert.True(t, res.FileInfo.Exists)
	assert.EqualValues(t, 19, res.FileInfo.Size)
	assert.Equal(t, ".txt", res.FileInfo.Extension)
	assert.Equal(t, "document", res.FileInfo.Category)
	assert.Contains(t, res.FileInfo.MimeType, "text/plain")

	missing := v.ValidatePath(filepath.Join(dir, "gone.txt"))
	assert.True(t, missing.IsValid)
	assert.False(t, missing.FileInfo.Exists)
	assert.NoError(t, missing.Err())
}
