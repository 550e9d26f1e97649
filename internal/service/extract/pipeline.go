package extract

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/feichai0017/metadata-extractor/config"
	"github.com/feichai0017/metadata-extractor/internal/agent"
	"github.com/feichai0017/metadata-extractor/internal/agent/probe/stat"
	"github.com/feichai0017/metadata-extractor/internal/models"
	"github.com/feichai0017/metadata-extractor/pkg/logger"
)

// StatProbe supplies the base fields of a record.
type StatProbe interface {
	Stat(ctx context.Context, path string) (stat.Info, error)
	Algorithm() string
}

// Extractor builds one record per path.
type Extractor interface {
	Run(ctx context.Context, path string) (*models.Record, error)
}

// Pipeline turns a file path into a metadata record. It holds no mutable
// state after construction and is safe for concurrent use.
type Pipeline struct {
	categories *models.CategoryTable
	stat       StatProbe
	probes     *agent.ProbeFactory
	clock      func() time.Time
	logger     logger.Logger
}

// pipelineOptions collects Option values while NewPipeline runs.
type pipelineOptions struct {
	categories *models.CategoryTable
	stat       StatProbe
	probes     *agent.ProbeFactory
	clock      func() time.Time
	logger     logger.Logger
	overrides  []probeOverride
}

type probeOverride struct {
	cat   models.FileCategory
	probe agent.ContentProbe
}

type Option func(*pipelineOptions)

// WithCategories replaces the default extension tables.
func WithCategories(t *models.CategoryTable) Option {
	return func(o *pipelineOptions) {
		o.categories = t
	}
}

func WithStatProbe(s StatProbe) Option {
	return func(o *pipelineOptions) {
		o.stat = s
	}
}

// WithProbeFactory replaces the default image and media probes.
func WithProbeFactory(f *agent.ProbeFactory) Option {
	return func(o *pipelineOptions) {
		o.probes = f
	}
}

// WithProbe binds a content probe to one category. Applied after
// WithProbeFactory regardless of option order, on a copy of the factory.
func WithProbe(cat models.FileCategory, probe agent.ContentProbe) Option {
	return func(o *pipelineOptions) {
		o.overrides = append(o.overrides, probeOverride{cat, probe})
	}
}

func WithClock(clock func() time.Time) Option {
	return func(o *pipelineOptions) {
		o.clock = clock
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *pipelineOptions) {
		o.logger = l
	}
}

// NewPipeline builds a pipeline. Unset collaborators get defaults: the
// standard category tables, an md5 stat probe and the image and media
// probes reading config.DefaultExtractorConfig.
func NewPipeline(opts ...Option) (*Pipeline, error) {
	o := &pipelineOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = logger.NewNop()
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.categories == nil {
		table, err := config.DefaultCategories().Table()
		if err != nil {
			return nil, fmt.Errorf("failed to build category table: %w", err)
		}
		o.categories = table
	}
	if o.stat == nil {
		s, err := stat.New(config.DefaultExtractorConfig().HashAlgorithm)
		if err != nil {
			return nil, err
		}
		o.stat = s
	}

	probes := o.probes
	switch {
	case probes == nil:
		def := config.DefaultExtractorConfig()
		probes = agent.NewDefaultProbeFactory(agent.ProbeConfig{
			FFprobePath:  def.FFprobePath,
			ProbeTimeout: def.ProbeTimeout,
		}, o.logger)
	case len(o.overrides) > 0:
		probes = probes.Clone()
	}
	for _, ov := range o.overrides {
		if err := probes.Register(ov.cat, ov.probe); err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		categories: o.categories,
		stat:       o.stat,
		probes:     probes,
		clock:      o.clock,
		logger:     o.logger,
	}, nil
}

// NewPipelineFromConfig builds a pipeline from extractor settings.
func NewPipelineFromConfig(cfg *config.ExtractorConfig, log logger.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table, err := config.LoadCategoryTable(cfg.CategoriesFile)
	if err != nil {
		return nil, err
	}
	s, err := stat.New(cfg.HashAlgorithm)
	if err != nil {
		return nil, err
	}
	factory := agent.NewDefaultProbeFactory(agent.ProbeConfig{
		FFprobePath:  cfg.FFprobePath,
		ProbeTimeout: cfg.ProbeTimeout,
	}, log)

	return NewPipeline(
		WithCategories(table),
		WithStatProbe(s),
		WithProbeFactory(factory),
		WithLogger(log),
	)
}

// Categories returns the pipeline's category table.
func (p *Pipeline) Categories() *models.CategoryTable { return p.categories }

// Extract returns the record for path. It never fails: terminal problems
// produce a record holding only "error".
func (p *Pipeline) Extract(ctx context.Context, path string) *models.Record {
	rec, _ := p.Run(ctx, path)
	return rec
}

// Run is Extract that also returns the terminal error, if any. The record is
// always non-nil.
func (p *Pipeline) Run(ctx context.Context, path string) (*models.Record, error) {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		nf := &NotFoundError{Path: path}
		return models.ErrorRecord(nf.Error()), nf
	}

	info, err := p.stat.Stat(ctx, path)
	if err != nil {
		bs := &BaseStatError{Path: path, Err: err}
		return models.ErrorRecord(bs.Error()), bs
	}

	category := p.categories.Classify(info.Extension)

	b := models.NewRecordBuilder().
		SetBase(models.FieldFilename, info.Name).
		SetBase(models.FieldFilepath, info.Path).
		SetBase(models.FieldDirectory, info.Directory).
		SetBase(models.FieldExtension, info.Extension).
		SetBase(models.FieldFileType, string(category)).
		SetBase(models.FieldSizeBytes, info.Size).
		SetBase(models.FieldSizeMB, info.SizeMB()).
		SetBase(models.FieldCreated, stat.FormatTimestamp(info.Created)).
		SetBase(models.FieldModified, stat.FormatTimestamp(info.Modified)).
		SetBase(models.FieldAccessed, stat.FormatTimestamp(info.Accessed)).
		SetBase(models.FieldPermissions, info.Permissions()).
		SetBase(models.HashField(info.HashAlgorithm), info.Hash).
		SetBase(models.FieldExtractionTimestamp, stat.FormatTimestamp(p.clock()))

	if probe, ok := p.probes.GetProbe(category); ok {
		out, err := p.runProbe(ctx, probe, info.Path)
		if err != nil {
			p.logger.Debug("Content probe failed",
				logger.String("path", info.Path),
				logger.String("probe", probe.Name()),
				logger.Error(err),
			)
			b.Merge(models.ProbeOutput{err.Field()})
		} else {
			b.Merge(out)
		}
	}

	return b.Build(), nil
}

// runProbe calls probe and converts both errors and panics into a
// ProbeError.
func (p *Pipeline) runProbe(ctx context.Context, probe agent.ContentProbe, path string) (out models.ProbeOutput, perr *ProbeError) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			perr = &ProbeError{
				Probe:     probe.Name(),
				Namespace: probe.Namespace(),
				Err:       fmt.Errorf("probe panicked: %v", r),
			}
		}
	}()

	out, err := probe.Probe(ctx, path)
	if err != nil {
		return nil, &ProbeError{Probe: probe.Name(), Namespace: probe.Namespace(), Err: err}
	}
	return out, nil
}
