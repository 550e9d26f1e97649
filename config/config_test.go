package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/metadata-extractor/internal/models"
)

func TestLoadCategoriesDefaults(t *testing.T) {
	cfg, err := LoadCategories("")
	require.NoError(t, err)
	assert.Equal(t, DefaultImageExtensions, cfg.Image)
	assert.Equal(t, DefaultDocumentExtensions, cfg.Document)

	table, err := cfg.Table()
	require.NoError(t, err)
	assert.Equal(t, models.CategoryImage, table.Classify(".JPG"))
	assert.Equal(t, models.CategoryVideo, table.Classify(".mkv"))
	assert.Equal(t, models.CategoryAudio, table.Classify(".flac"))
	assert.Equal(t, models.CategoryDocument, table.Classify(".txt"))
	assert.Equal(t, models.CategoryOther, table.Classify(".xyz"))
}

func TestDefaultCategoriesReturnsCopy(t *testing.T) {
	cfg := DefaultCategories()
	cfg.Image[0] = ".mutated"
	assert.Equal(t, ".jpg", DefaultImageExtensions[0])
}

func TestLoadCategoriesOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte("audio:\n  - .opus\n  - .mp3\ndocument: []\n"), 0o644))

	table, err := LoadCategoryTable(path)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryAudio, table.Classify(".opus"))
	assert.Equal(t, models.CategoryOther, table.Classify(".flac"))
	// an explicit empty list clears the category
	assert.Equal(t, models.CategoryOther, table.Classify(".txt"))
	// untouched lists keep their defaults
	assert.Equal(t, models.CategoryImage, table.Classify(".png"))
}

func TestLoadCategoriesOverlap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte("video:\n  - .png\n"), 0o644))

	_, err := LoadCategoryTable(path)
	assert.Error(t, err)
}

func TestLoadCategoriesErrors(t *testing.T) {
	_, err := LoadCategories(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("image: [unterminated"), 0o644))
	_, err = LoadCategories(path)
	assert.Error(t, err)
}

func TestExtractorConfigValidate(t *testing.T) {
	cfg := DefaultExtractorConfig()
	require.NoError(t, cfg.Validate())

	tests := []struct {
		name   string
		mutate func(c *ExtractorConfig)
	}{
		{"unknown hash", func(c *ExtractorConfig) { c.HashAlgorithm = "crc32" }},
		{"zero workers", func(c *ExtractorConfig) { c.Concurrency = 0 }},
		{"negative timeout", func(c *ExtractorConfig) { c.ProbeTimeout = -time.Second }},
		{"empty csv name", func(c *ExtractorConfig) { c.CSVFilename = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultExtractorConfig()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestEnvGetters(t *testing.T) {
	t.Setenv("MX_TEST_INT", "12")
	t.Setenv("MX_TEST_BAD_INT", "twelve")
	t.Setenv("MX_TEST_DURATION", "90s")
	t.Setenv("MX_TEST_LIST", " /data , ,/srv ")
	t.Setenv("MX_TEST_BOOL", "true")

	assert.Equal(t, 12, getInt("MX_TEST_INT", 1))
	assert.Equal(t, 1, getInt("MX_TEST_BAD_INT", 1))
	assert.Equal(t, 90*time.Second, getDuration("MX_TEST_DURATION", time.Second))
	assert.Equal(t, []string{"/data", "/srv"}, getList("MX_TEST_LIST"))
	assert.True(t, getBool("MX_TEST_BOOL", false))
	assert.Equal(t, "fallback", getString("MX_TEST_UNSET", "fallback"))
}
