package handlers

import (
	"github.com/feichai0017/metadata-extractor/internal/service/extract"
	"github.com/feichai0017/metadata-extractor/internal/utils/validator"
	"github.com/feichai0017/metadata-extractor/pkg/logger"
)

type Handlers struct {
	Metadata *MetadataHandler
	Health   *HealthHandler
}

func NewHandlers(
	metadataService extract.MetadataService,
	v *validator.PathValidator,
	checks map[string]Check,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Metadata: NewMetadataHandler(metadataService, v, log),
		Health:   NewHealthHandler(checks),
	}
}
