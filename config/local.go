package config

import (
	"os"
	"path/filepath"
	"sync"
)

var (
	localOnce   sync.Once
	localConfig *LocalStorageConfig
)

type LocalStorageConfig struct {
	BaseDir string
}

func GetLocalStorageConfig() *LocalStorageConfig {
	localOnce.Do(func() {
		loadEnv()

		def := filepath.Join(os.TempDir(), "metadata-extractor")
		localConfig = &LocalStorageConfig{
			BaseDir: getString("LOCAL_STORAGE_DIR", def),
		}
	})
	return localConfig
}
