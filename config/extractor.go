package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/feichai0017/metadata-extractor/internal/models"
)

var (
	extractorOnce   sync.Once
	extractorConfig *ExtractorConfig
)

type ExtractorConfig struct {
	HashAlgorithm  string
	FFprobePath    string
	ProbeTimeout   time.Duration
	Concurrency    int
	CategoriesFile string
	CSVFilename    string
}

// DefaultExtractorConfig returns the settings used when nothing is configured.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		HashAlgorithm: "md5",
		FFprobePath:   "ffprobe",
		ProbeTimeout:  60 * time.Second,
		Concurrency:   4,
		CSVFilename:   "metadata_output.csv",
	}
}

func GetExtractorConfig() *ExtractorConfig {
	extractorOnce.Do(func() {
		loadEnv()

		def := DefaultExtractorConfig()
		extractorConfig = &ExtractorConfig{
			HashAlgorithm:  strings.ToLower(getString("HASH_ALGORITHM", def.HashAlgorithm)),
			FFprobePath:    getString("FFPROBE_PATH", def.FFprobePath),
			ProbeTimeout:   getDuration("PROBE_TIMEOUT", def.ProbeTimeout),
			Concurrency:    getInt("EXTRACT_CONCURRENCY", def.Concurrency),
			CategoriesFile: getString("CATEGORIES_FILE", ""),
			CSVFilename:    getString("CSV_FILENAME", def.CSVFilename),
		}
	})
	return extractorConfig
}

// Validate checks the settings that would otherwise only fail per file.
func (c *ExtractorConfig) Validate() error {
	supported := false
	for _, algo := range models.HashAlgorithms {
		if c.HashAlgorithm == algo {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported hash algorithm %q (want one of %s)",
			c.HashAlgorithm, strings.Join(models.HashAlgorithms, ", "))
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.ProbeTimeout < 0 {
		return fmt.Errorf("probe timeout must not be negative, got %s", c.ProbeTimeout)
	}
	if c.CSVFilename == "" {
		return fmt.Errorf("csv filename must not be empty")
	}
	return nil
}
