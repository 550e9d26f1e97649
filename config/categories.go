package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/feichai0017/metadata-extractor/internal/models"
)

// Default extension sets by category.
var (
	DefaultImageExtensions    = []string{".jpg", ".jpeg", ".tiff", ".tif", ".png", ".bmp", ".gif", ".webp"}
	DefaultVideoExtensions    = []string{".mp4", ".mov", ".avi", ".mkv", ".flv", ".wmv", ".m4v", ".webm"}
	DefaultAudioExtensions    = []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".wma", ".m4a"}
	DefaultDocumentExtensions = []string{".pdf", ".doc", ".docx", ".txt", ".rtf"}
)

// CategoriesConfig is the YAML shape of a category override file. A list
// that is omitted keeps its default.
type CategoriesConfig struct {
	Image    []string `yaml:"image"`
	Video    []string `yaml:"video"`
	Audio    []string `yaml:"audio"`
	Document []string `yaml:"document"`
}

// DefaultCategories returns a fresh copy of the default extension sets.
func DefaultCategories() CategoriesConfig {
	return CategoriesConfig{
		Image:    append([]string(nil), DefaultImageExtensions...),
		Video:    append([]string(nil), DefaultVideoExtensions...),
		Audio:    append([]string(nil), DefaultAudioExtensions...),
		Document: append([]string(nil), DefaultDocumentExtensions...),
	}
}

// Table builds the immutable category table.
func (c CategoriesConfig) Table() (*models.CategoryTable, error) {
	return models.NewCategoryTable(c.Image, c.Video, c.Audio, c.Document)
}

// LoadCategories reads a YAML override file on top of the defaults. An empty
// path returns the defaults.
func LoadCategories(path string) (CategoriesConfig, error) {
	cfg := DefaultCategories()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read categories file: %w", err)
	}

	var override CategoriesConfig
	if err := yaml.Unmarshal(data, &override); err != nil {
		return cfg, fmt.Errorf("failed to parse categories file %s: %w", path, err)
	}

	if override.Image != nil {
		cfg.Image = override.Image
	}
	if override.Video != nil {
		cfg.Video = override.Video
	}
	if override.Audio != nil {
		cfg.Audio = override.Audio
	}
	if override.Document != nil {
		cfg.Document = override.Document
	}
	return cfg, nil
}

// LoadCategoryTable is LoadCategories followed by Table.
func LoadCategoryTable(path string) (*models.CategoryTable, error) {
	cfg, err := LoadCategories(path)
	if err != nil {
		return nil, err
	}
	return cfg.Table()
}
