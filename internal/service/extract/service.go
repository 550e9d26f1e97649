package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/feichai0017/metadata-extractor/internal/models"
	"github.com/feichai0017/metadata-extractor/internal/utils/validator"
	"github.com/feichai0017/metadata-extractor/pkg/logger"
	"github.com/feichai0017/metadata-extractor/pkg/queue"
	"github.com/feichai0017/metadata-extractor/pkg/storage"
)

// MetadataService is the extraction API used by the HTTP handlers and the
// worker.
type MetadataService interface {
	ExtractNow(ctx context.Context, path string) (*models.Record, error)
	Submit(ctx context.Context, req *validator.BatchRequest) ([]*models.ExtractionTask, error)
	HandleTask(ctx context.Context, task *queue.Task) error
	GetStatus(ctx context.Context, taskID string) (*models.ExtractionTask, error)
	GetResult(ctx context.Context, taskID string) (*models.Record, error)
	CancelTask(ctx context.Context, taskID string) error
	CleanupResults(ctx context.Context) error
}

type Service struct {
	pipeline  Extractor
	queue     queue.Queue
	storage   storage.Storage
	validator *validator.PathValidator
	logger    logger.Logger
	config    *ServiceConfig
}

type ServiceConfig struct {
	RetentionPeriod time.Duration
	Priority        int
}

func NewService(
	pipeline Extractor,
	q queue.Queue,
	store storage.Storage,
	v *validator.PathValidator,
	log logger.Logger,
	cfg *ServiceConfig,
) *Service {
	if cfg == nil {
		cfg = &ServiceConfig{
			RetentionPeriod: 24 * time.Hour,
			Priority:        2,
		}
	}
	if v == nil {
		v = validator.NewPathValidator(log, nil)
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Service{
		pipeline:  pipeline,
		queue:     q,
		storage:   store,
		validator: v,
		logger:    log,
		config:    cfg,
	}
}

func resultKey(taskID string) string {
	return fmt.Sprintf("result:%s", taskID)
}

// ExtractNow runs the pipeline in the caller's goroutine. The returned error
// is only set for invalid paths; terminal extraction failures are carried
// by the record.
func (s *Service) ExtractNow(ctx context.Context, path string) (*models.Record, error) {
	path = CleanPath(path)
	if err := s.validator.ValidatePath(path).Err(); err != nil {
		return nil, err
	}

	rec, err := s.pipeline.Run(ctx, path)
	logOutcome(s.logger, path, rec, err)
	return rec, nil
}

// Submit validates the batch and enqueues one task per path.
func (s *Service) Submit(ctx context.Context, req *validator.BatchRequest) ([]*models.ExtractionTask, error) {
	if req == nil || len(req.Paths) == 0 {
		return nil, ErrEmptyBatch
	}
	if err := s.validator.ValidateRequest(req); err != nil {
		return nil, err
	}

	paths := make([]string, len(req.Paths))
	for i, raw := range req.Paths {
		res := s.validator.ValidatePath(CleanPath(raw))
		if err := res.Err(); err != nil {
			return nil, fmt.Errorf("path %d: %w", i, err)
		}
		paths[i] = res.FileInfo.Path
	}

	priority := req.Priority
	if priority == 0 {
		priority = s.config.Priority
	}

	tasks := make([]*models.ExtractionTask, 0, len(paths))
	for _, path := range paths {
		task, err := s.enqueue(ctx, path, priority)
		if err != nil {
			return tasks, err
		}
		tasks = append(tasks, task)
	}

	s.logger.Info("Extraction batch submitted",
		logger.Int("tasks", len(tasks)),
	)
	return tasks, nil
}

func (s *Service) enqueue(ctx context.Context, path string, priority int) (*models.ExtractionTask, error) {
	now := time.Now()
	task := &models.ExtractionTask{
		ID:        uuid.New().String(),
		Path:      path,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata: map[string]string{
			"filename":  filepath.Base(path),
			"extension": models.FileExtension(path),
		},
	}

	queueTask := &queue.Task{
		ID:        task.ID,
		Type:      queue.TaskTypeMetadataExtract,
		Priority:  priority,
		Payload:   map[string]interface{}{"path": path},
		Metadata:  task.Metadata,
		CreatedAt: now,
	}

	if err := s.queue.Enqueue(ctx, queueTask); err != nil {
		s.logger.Error("Failed to enqueue task",
			logger.String("taskId", task.ID),
			logger.String("path", path),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}
	task.ID = queueTask.ID

	if err := s.queue.SaveFinalStatus(ctx, &queue.TaskStatus{
		TaskID:    task.ID,
		Status:    queue.StatusPending,
		StartedAt: now,
	}); err != nil {
		s.logger.Error("Failed to save initial status",
			logger.String("taskId", task.ID),
			logger.Error(err),
		)
	}

	return task, nil
}

// HandleTask extracts one queued path and stores the record as
// result:<taskID>. A terminal extraction error still completes the task;
// the record carries the message.
func (s *Service) HandleTask(ctx context.Context, task *queue.Task) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("invalid task: missing id")
	}
	path, ok := task.PayloadString("path")
	if !ok || path == "" {
		return fmt.Errorf("invalid task %s: missing path", task.ID)
	}

	log := logger.FromContext(logger.WithTaskID(ctx, task.ID), s.logger)
	startedAt := time.Now()

	if err := s.queue.SaveFinalStatus(ctx, &queue.TaskStatus{
		TaskID:    task.ID,
		Status:    queue.StatusRunning,
		Progress:  0.5,
		StartedAt: startedAt,
	}); err != nil {
		log.Error("Failed to save running status", logger.Error(err))
	}

	rec, runErr := s.pipeline.Run(ctx, path)
	logOutcome(log, path, rec, runErr)

	data, err := json.Marshal(rec)
	if err != nil {
		return s.fail(ctx, task.ID, startedAt, fmt.Errorf("failed to marshal result: %w", err))
	}
	if _, err := s.storage.Store(ctx, bytes.NewReader(data), resultKey(task.ID)); err != nil {
		return s.fail(ctx, task.ID, startedAt, fmt.Errorf("failed to store result: %w", err))
	}

	final := &queue.TaskStatus{
		TaskID:     task.ID,
		Status:     queue.StatusCompleted,
		Progress:   1.0,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	if runErr != nil {
		final.Error = runErr.Error()
	}
	if err := s.queue.SaveFinalStatus(ctx, final); err != nil {
		log.Error("Failed to save final status", logger.Error(err))
	}

	return nil
}

func (s *Service) fail(ctx context.Context, taskID string, startedAt time.Time, cause error) error {
	if err := s.queue.SaveFinalStatus(ctx, &queue.TaskStatus{
		TaskID:     taskID,
		Status:     queue.StatusFailed,
		Error:      cause.Error(),
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}); err != nil {
		s.logger.Error("Failed to save failed status",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
	}
	return cause
}

func (s *Service) GetStatus(ctx context.Context, taskID string) (*models.ExtractionTask, error) {
	status, err := s.queue.GetTaskStatus(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}

	return &models.ExtractionTask{
		ID:        status.TaskID,
		Status:    toTaskStatus(status.Status),
		Progress:  status.Progress,
		Error:     status.Error,
		Metadata:  make(map[string]string),
		CreatedAt: status.StartedAt,
		UpdatedAt: status.FinishedAt,
	}, nil
}

func toTaskStatus(s string) models.TaskStatus {
	switch s {
	case queue.StatusRunning, "active":
		return models.StatusRunning
	case queue.StatusCompleted:
		return models.StatusCompleted
	case queue.StatusFailed:
		return models.StatusFailed
	case queue.StatusCancelled:
		return models.StatusCancelled
	default:
		return models.StatusPending
	}
}

func (s *Service) GetResult(ctx context.Context, taskID string) (*models.Record, error) {
	status, err := s.GetStatus(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if status.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotCompleted, status.Status)
	}

	reader, err := s.storage.Get(ctx, resultKey(taskID))
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	defer reader.Close()

	var rec models.Record
	if err := json.NewDecoder(reader).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &rec, nil
}

func (s *Service) CancelTask(ctx context.Context, taskID string) error {
	if err := s.queue.CancelTask(ctx, taskID); err != nil {
		return fmt.Errorf("failed to cancel task: %w", err)
	}

	s.logger.Info("Task cancelled",
		logger.String("taskId", taskID),
	)
	return nil
}

// CleanupResults removes stored results older than the retention period.
func (s *Service) CleanupResults(ctx context.Context) error {
	threshold := time.Now().Add(-s.config.RetentionPeriod)

	if err := s.storage.CleanupBefore(ctx, threshold); err != nil {
		return fmt.Errorf("failed to cleanup storage: %w", err)
	}

	s.logger.Info("Completed results cleanup",
		logger.Time("threshold", threshold),
	)
	return nil
}

// logOutcome logs one extraction: Info on success, Warn when a probe
// failed, Error when no record could be built.
func logOutcome(log logger.Logger, path string, rec *models.Record, err error) {
	switch {
	case err != nil:
		log.Error("Extraction failed",
			logger.String("path", path),
			logger.Error(err),
		)
	case len(rec.ErrorFields()) > 0:
		log.Warn("Extraction finished with probe errors",
			logger.String("path", path),
			logger.Strings("errors", rec.ErrorFields()),
		)
	default:
		log.Info("Extraction finished",
			logger.String("path", path),
			logger.Int("fields", rec.Len()),
		)
	}
}

// LogOutcome is logOutcome for drivers that run the pipeline directly.
func LogOutcome(log logger.Logger, r Result) {
	logOutcome(log, r.Path, r.Record, r.Err)
}

var _ MetadataService = (*Service)(nil)

// IsValidationError reports whether err came from request validation.
func IsValidationError(err error) bool {
	var ve validator.ValidationErrors
	return errors.As(err, &ve) || errors.Is(err, ErrEmptyBatch)
}
