package config

import (
	"sync"
	"time"
)

var (
	queueOnce   sync.Once
	queueConfig *QueueConfig
)

type QueueConfig struct {
	RedisAddr      string
	RedisDB        int
	MaxRetries     int
	RetryDelay     time.Duration
	ProcessTimeout time.Duration
	Concurrency    int
	StatusTTL      time.Duration
}

func GetQueueConfig() *QueueConfig {
	queueOnce.Do(func() {
		loadEnv()

		queueConfig = &QueueConfig{
			RedisAddr:      getString("REDIS_ADDR", "localhost:6379"),
			RedisDB:        getInt("REDIS_DB", 0),
			MaxRetries:     getInt("QUEUE_MAX_RETRIES", 3),
			RetryDelay:     getDuration("QUEUE_RETRY_DELAY", time.Minute),
			ProcessTimeout: getDuration("QUEUE_PROCESS_TIMEOUT", 10*time.Minute),
			Concurrency:    getInt("WORKER_CONCURRENCY", 10),
			StatusTTL:      getDuration("QUEUE_STATUS_TTL", 24*time.Hour),
		}
	})
	return queueConfig
}
