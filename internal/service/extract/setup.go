package extract

import (
	"fmt"

	"github.com/feichai0017/metadata-extractor/config"
	"github.com/feichai0017/metadata-extractor/internal/utils/validator"
	"github.com/feichai0017/metadata-extractor/pkg/logger"
	"github.com/feichai0017/metadata-extractor/pkg/queue"
	"github.com/feichai0017/metadata-extractor/pkg/storage"
)

// Components are the pieces shared by the server and worker binaries.
type Components struct {
	Service   *Service
	Queue     *queue.AsynqQueue
	Storage   storage.Storage
	Validator *validator.PathValidator
}

// GetService wires a Service from the environment configuration.
func GetService(log logger.Logger) (*Components, error) {
	pipeline, err := NewPipelineFromConfig(config.GetExtractorConfig(), log.Named("pipeline"))
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	serverCfg := config.GetServerConfig()
	storageType, err := storage.ParseStorageType(serverCfg.StorageType)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStorage(storageType, log.Named("storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	q, err := queue.GetQueue()
	if err != nil {
		return nil, fmt.Errorf("failed to create queue: %w", err)
	}

	v := validator.NewPathValidator(log.Named("validator"), &validator.ValidatorConfig{
		AllowedRoots: serverCfg.AllowedRoots,
		MaxBatchSize: serverCfg.MaxBatchSize,
		Categories:   pipeline.Categories(),
	})

	svc := NewService(pipeline, q, store, v, log, &ServiceConfig{
		RetentionPeriod: serverCfg.RetentionPeriod,
		Priority:        2,
	})

	return &Components{
		Service:   svc,
		Queue:     q,
		Storage:   store,
		Validator: v,
	}, nil
}
