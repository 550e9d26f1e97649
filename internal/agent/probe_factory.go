package agent

import (
	"fmt"
	"time"

	"github.com/feichai0017/metadata-extractor/internal/agent/probe/image"
	"github.com/feichai0017/metadata-extractor/internal/agent/probe/media"
	"github.com/feichai0017/metadata-extractor/internal/models"
	"github.com/feichai0017/metadata-extractor/pkg/logger"
)

// ProbeFactory selects the content probe for a file category.
type ProbeFactory struct {
	probes map[models.FileCategory]ContentProbe
	logger logger.Logger
}

// ProbeConfig configures the default probes.
type ProbeConfig struct {
	FFprobePath  string
	ProbeTimeout time.Duration
}

// NewProbeFactory returns a factory with no probes registered.
func NewProbeFactory(log logger.Logger) *ProbeFactory {
	if log == nil {
		log = logger.NewNop()
	}
	return &ProbeFactory{
		probes: make(map[models.FileCategory]ContentProbe),
		logger: log,
	}
}

// NewDefaultProbeFactory registers the image probe for images and a single
// shared media probe for video and audio. Documents and other files get no
// content probe.
func NewDefaultProbeFactory(cfg ProbeConfig, log logger.Logger) *ProbeFactory {
	f := NewProbeFactory(log)

	imageProbe := image.NewProbe()
	mediaProbe := media.NewProbe(
		media.WithFFprobePath(cfg.FFprobePath),
		media.WithTimeout(cfg.ProbeTimeout),
	)

	// registrations below cannot fail
	_ = f.Register(models.CategoryImage, imageProbe)
	_ = f.Register(models.CategoryVideo, mediaProbe)
	_ = f.Register(models.CategoryAudio, mediaProbe)

	return f
}

// Register binds probe to cat, replacing any previous binding. Documents and
// other files never run a content probe.
func (f *ProbeFactory) Register(cat models.FileCategory, probe ContentProbe) error {
	switch cat {
	case models.CategoryImage, models.CategoryVideo, models.CategoryAudio:
	default:
		return fmt.Errorf("category %s does not take a content probe", cat)
	}
	if probe == nil {
		return fmt.Errorf("nil probe for category %s", cat)
	}
	f.probes[cat] = probe
	f.logger.Debug("Registered content probe",
		logger.String("category", string(cat)),
		logger.String("probe", probe.Name()),
	)
	return nil
}

// Clone returns a factory with the same bindings. Registering on the clone
// leaves f unchanged.
func (f *ProbeFactory) Clone() *ProbeFactory {
	c := &ProbeFactory{
		probes: make(map[models.FileCategory]ContentProbe, len(f.probes)),
		logger: f.logger,
	}
	for cat, probe := range f.probes {
		c.probes[cat] = probe
	}
	return c
}

// GetProbe returns the probe for cat, if any.
func (f *ProbeFactory) GetProbe(cat models.FileCategory) (ContentProbe, bool) {
	probe, ok := f.probes[cat]
	return probe, ok
}
