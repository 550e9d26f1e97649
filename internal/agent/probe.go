package agent

import (
	"context"

	"github.com/feichai0017/metadata-extractor/internal/models"
)

// ContentProbe extracts type-specific metadata from one file.
type ContentProbe interface {
	// Name identifies the probe in logs.
	Name() string

	// Namespace is the namespace of the probe's failure marker. A probe that
	// returns an error is reported as a single <namespace>_error field.
	Namespace() models.Namespace

	// Probe reads path and returns namespaced fields. The output of a failed
	// probe is discarded.
	Probe(ctx context.Context, path string) (models.ProbeOutput, error)
}
