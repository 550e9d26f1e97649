package config

import (
	"sync"
	"time"
)

var (
	serverOnce   sync.Once
	serverConfig *ServerConfig
)

type ServerConfig struct {
	Addr            string
	AllowedRoots    []string
	MaxBatchSize    int
	StorageType     string
	RetentionPeriod time.Duration
	ShutdownTimeout time.Duration
}

func GetServerConfig() *ServerConfig {
	serverOnce.Do(func() {
		loadEnv()

		serverConfig = &ServerConfig{
			Addr:            getString("SERVER_ADDR", ":8080"),
			AllowedRoots:    getList("ALLOWED_ROOTS"),
			MaxBatchSize:    getInt("MAX_BATCH_SIZE", 500),
			StorageType:     getString("STORAGE_TYPE", "local"),
			RetentionPeriod: getDuration("RESULT_RETENTION", 24*time.Hour),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		}
	})
	return serverConfig
}
